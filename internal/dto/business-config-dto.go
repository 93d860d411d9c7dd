package dto

type UpdateConfigDTO struct {
	Value string `json:"value" validate:"required,max=4000"`
}

type ConfigEntryDTO struct {
	Key         string  `json:"key"`
	Value       string  `json:"value"`
	Description *string `json:"description"`
	UpdatedAt   string  `json:"updated_at"`
}
