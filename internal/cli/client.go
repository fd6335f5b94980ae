package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// OrderResponse — заказ из API.
type OrderResponse struct {
	RequestID    string  `json:"request_id"`
	Flavor       string  `json:"flavor"`
	Stage        string  `json:"stage"`
	Progress     float64 `json:"progress"`
	Message      string  `json:"message"`
	ErrorMessage string  `json:"error_message,omitempty"`
	TableID      string  `json:"table_id,omitempty"`
	UserID       string  `json:"user_id,omitempty"`
	Done         bool    `json:"done"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// CreateOrderPayload — ответ на создание заказа.
type CreateOrderPayload struct {
	RequestID string `json:"request_id"`
}

// CancelOrderPayload — ответ на отмену заказа.
type CancelOrderPayload struct {
	Canceled bool `json:"canceled"`
}

// Event — событие заказа из SSE-потока.
type Event struct {
	Type      string       `json:"type"`
	RequestID string       `json:"request_id,omitempty"`
	Stage     string       `json:"stage,omitempty"`
	Progress  float64      `json:"progress,omitempty"`
	Message   string       `json:"message,omitempty"`
	Result    *EventResult `json:"result,omitempty"`
}

// EventResult — payload события completed.
type EventResult struct {
	Delivered bool   `json:"delivered"`
	Flavor    string `json:"flavor"`
}

// --- Request types ---

// CreateOrderRequest — создание заказа.
type CreateOrderRequest struct {
	Flavor  string `json:"flavor"`
	TableID string `json:"table_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для DonutLine API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Orders ---

// CreateOrder создаёт новый заказ.
func (c *Client) CreateOrder(req CreateOrderRequest) (*CreateOrderPayload, error) {
	var payload CreateOrderPayload
	err := c.post("/api/v1/orders", req, &payload)
	return &payload, err
}

// GetOrder возвращает заказ по request id.
func (c *Client) GetOrder(id string) (*OrderResponse, error) {
	var order OrderResponse
	err := c.get("/api/v1/orders/"+id, &order)
	return &order, err
}

// CancelOrder отменяет заказ.
func (c *Client) CancelOrder(id string) (*CancelOrderPayload, error) {
	var payload CancelOrderPayload
	err := c.post("/api/v1/orders/"+id+"/cancel", nil, &payload)
	return &payload, err
}

// WatchEvents подключается к SSE-потоку и вызывает fn для каждого
// события. Возврат false из fn завершает поток. Блокируется до
// отмены контекста, остановки через fn или обрыва соединения.
func (c *Client) WatchEvents(ctx context.Context, fn func(Event) bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/events", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// стриминг без общего таймаута клиента
	streamClient := &http.Client{}
	resp, err := streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			return fmt.Errorf("failed to decode event: %w", err)
		}

		if !fn(ev) {
			return nil
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	return scanner.Err()
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
