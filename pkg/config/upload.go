package config

type UploadConfig struct {
	AllowedMimeTypes []string
	MaxSizeMB        int64
	PathPrefix       string
}

var UploadContexts = map[string]UploadConfig{
	"company_document": {
		AllowedMimeTypes: []string{
			"application/pdf", "image/jpeg", "image/png",
			"application/zip", // docx/xlsx определяются как zip
			"text/plain; charset=utf-8",
		},
		MaxSizeMB:  20,
		PathPrefix: "documents",
	},
	"news_image": {
		AllowedMimeTypes: []string{"image/jpeg", "image/png", "image/webp"},
		MaxSizeMB:        5,
		PathPrefix:       "news",
	},
}
