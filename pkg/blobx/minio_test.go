package blobx_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aussiebroadwan/explorer/pkg/blobx"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Run with: GO_TEST_INTEGRATION=1 go test ./pkg/blobx -run Integration -count=1
func startMinio(t *testing.T) (endpoint string) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image: "docker.io/minio/minio:latest",
		Env: map[string]string{
			"MINIO_ROOT_USER":     "explorer",
			"MINIO_ROOT_PASSWORD": "explorer-secret",
		},
		Cmd:          []string{"server", "/data"},
		ExposedPorts: []string{"9000/tcp"},
		WaitingFor:   wait.ForListeningPort("9000/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

func TestIntegration_Minio(t *testing.T) {
	endpoint := startMinio(t)
	ctx := context.Background()

	cfg := blobx.MinioConfig{
		Endpoint:  endpoint,
		AccessKey: "explorer",
		SecretKey: "explorer-secret",
		Bucket:    "media",
	}

	t.Run("missing bucket fails without CreateBucket", func(t *testing.T) {
		_, err := blobx.NewMinio(ctx, cfg)
		require.Error(t, err)
	})

	cfg.CreateBucket = true
	store, err := blobx.NewMinio(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, store.Ping(ctx))

	exercise(t, store)
}
