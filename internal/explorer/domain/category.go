package domain

type Category struct {
	ID     int64   `json:"id"`
	Slug   string  `json:"slug"`
	NameVI string  `json:"name_vi"`
	NameEN string  `json:"name_en"`
	Icon   *string `json:"icon"`
	Color  string  `json:"color"`
}
