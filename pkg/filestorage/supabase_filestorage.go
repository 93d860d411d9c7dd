package filestorage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// SupabaseFileStorage хранит файлы в Supabase Storage через REST API.
type SupabaseFileStorage struct {
	httpClient *http.Client
	baseURL    string
	serviceKey string
	bucket     string
	now        func() time.Time
}

func NewSupabaseFileStorage(projectURL, serviceKey, bucket string) (FileStorageInterface, error) {
	if projectURL == "" {
		return nil, fmt.Errorf("supabase: не задан URL проекта")
	}
	if serviceKey == "" {
		return nil, fmt.Errorf("supabase: не задан сервисный ключ")
	}
	if bucket == "" {
		return nil, fmt.Errorf("supabase: не задан bucket")
	}
	if _, err := url.Parse(projectURL); err != nil {
		return nil, fmt.Errorf("supabase: неверный URL: %w", err)
	}
	return &SupabaseFileStorage{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(projectURL, "/") + "/storage/v1/object",
		serviceKey: serviceKey,
		bucket:     bucket,
		now:        time.Now,
	}, nil
}

func (s *SupabaseFileStorage) Save(ctx context.Context, file io.Reader, originalFileName string, prefix string) (string, error) {
	objectPath := path.Join(prefix, s.now().Format("2006/01"), uniqueName(s.now(), originalFileName))

	req, err := s.newRequest(ctx, http.MethodPost, objectPath, file)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("x-upsert", "false")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("supabase: ошибка загрузки: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", statusError("загрузка", resp)
	}
	return objectPath, nil
}

func (s *SupabaseFileStorage) Open(ctx context.Context, filePath string) (io.ReadCloser, error) {
	req, err := s.newRequest(ctx, http.MethodGet, filePath, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase: ошибка скачивания: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError("скачивание", resp)
	}
	return resp.Body, nil
}

func (s *SupabaseFileStorage) Delete(ctx context.Context, filePath string) error {
	req, err := s.newRequest(ctx, http.MethodDelete, filePath, nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: ошибка удаления: %w", err)
	}
	defer resp.Body.Close()

	// отсутствующий объект удалением не считаем ошибкой, как и на диске
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return statusError("удаление", resp)
	}
	return nil
}

func (s *SupabaseFileStorage) newRequest(ctx context.Context, method, objectPath string, body io.Reader) (*http.Request, error) {
	clean := path.Clean("/" + objectPath)
	if clean == "/" || strings.Contains(objectPath, "..") {
		return nil, ErrInvalidPath
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+"/"+url.PathEscape(s.bucket)+clean, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
	return req, nil
}

func statusError(op string, resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("supabase: %s вернула статус %d: %s", op, resp.StatusCode, strings.TrimSpace(string(msg)))
}
