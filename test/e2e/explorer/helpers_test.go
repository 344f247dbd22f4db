package explorer_test

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/explorer/pkg/explorersdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Container setup and shared helpers for the explorer API end-to-end tests.
 * The suite needs Docker and only runs with GO_TEST_INTEGRATION=1.
 */

const (
	testImageName = "explorer-api-test:latest"

	jwtSecret     = "e2e-secret-0123456789abcdef"
	adminEmail    = "admin@example.com"
	adminPassword = "Admin123!"
)

// TestMain builds the Docker image once before all tests and removes it
// after they complete.
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		fmt.Fprintln(os.Stdout, "skipping explorer e2e tests (set GO_TEST_INTEGRATION=1)")
		os.Exit(0)
	}

	fmt.Fprintf(os.Stdout, "Building Explorer API Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Explorer API Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/explorer/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}

func cleanupDockerImage() {
	_ = exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName).Run()
}

// baseEnv is the container environment shared by every test. Rate limits
// are raised so bursts of test traffic are not throttled.
func baseEnv() map[string]string {
	return map[string]string{
		"ENV":                         "test",
		"LOG_LEVEL":                   "info",
		"LOG_FORMAT":                  "json",
		"JWT_SECRET":                  jwtSecret,
		"ADMIN_EMAILS":                adminEmail,
		"DATABASE_FILE":               "/data/explorer.db",
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_WRITE_REQUESTS":    "1000",
		"RATELIMIT_WRITE_BURST":       "1000",
		"RATELIMIT_UPLOAD_REQUESTS":   "1000",
		"RATELIMIT_UPLOAD_BURST":      "1000",
		"RATELIMIT_PUBLIC_REQUESTS":   "1000",
		"RATELIMIT_PUBLIC_BURST":      "1000",
	}
}

// setupExplorerContainer starts the API with the given environment on top
// of baseEnv and returns its base URL.
func setupExplorerContainer(t *testing.T, env map[string]string, opts ...testcontainers.ContainerCustomizer) string {
	t.Helper()
	ctx := context.Background()

	merged := baseEnv()
	maps.Copy(merged, env)

	req := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImageName,
			ExposedPorts: []string{"8080/tcp"},
			Env:          merged,
			WaitingFor: wait.ForHTTP("/livez").
				WithPort("8080/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	}
	for _, opt := range opts {
		require.NoError(t, opt.Customize(&req))
	}

	container, err := testcontainers.GenericContainer(ctx, req)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
}

// registerAndLogin creates an account and opens a session for it.
func registerAndLogin(t *testing.T, client *explorersdk.Client, email, password, name string) *explorersdk.Session {
	t.Helper()

	_, err := client.Register(t.Context(), explorersdk.RegisterRequest{
		Email:       email,
		Password:    password,
		DisplayName: name,
	})
	require.NoError(t, err, "register %s", email)

	session, err := client.Login(t.Context(), email, password)
	require.NoError(t, err, "login %s", email)
	require.NotEmpty(t, session.Token())

	return session
}

// firstCategory returns the id of a seeded category.
func firstCategory(t *testing.T, client *explorersdk.Client) int64 {
	t.Helper()

	cats, err := client.ListCategories(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, cats, "categories are seeded by migrations")
	return cats[0].ID
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *explorersdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
