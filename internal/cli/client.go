package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// SettingResponse — настройка автоматизации из API.
type SettingResponse struct {
	ID                      string  `json:"id"`
	StageID                 string  `json:"stage_id"`
	StageName               string  `json:"stage_name"`
	TaskName                string  `json:"task_name"`
	TaskOrderPosition       int     `json:"task_order_position"`
	ResponsibleUserID       string  `json:"responsible_user_id,omitempty"`
	DispatcherID            string  `json:"dispatcher_id,omitempty"`
	DispatcherPercentage    int     `json:"dispatcher_percentage"`
	TaskTitleTemplate       string  `json:"task_title_template"`
	TaskDescriptionTemplate string  `json:"task_description_template"`
	PaymentAmount           float64 `json:"payment_amount"`
	DurationDays            int     `json:"duration_days"`
	StartCondition          string  `json:"start_condition"`
	DependsOnTaskID         string  `json:"depends_on_task_id,omitempty"`
	CreatedAt               string  `json:"created_at"`
	UpdatedAt               string  `json:"updated_at"`
}

// StageGroupResponse — настройки одного этапа.
type StageGroupResponse struct {
	StageID   string            `json:"stage_id"`
	StageName string            `json:"stage_name"`
	Settings  []SettingResponse `json:"settings"`
}

// ChainLinkResponse — звено цепочки этапов из API.
type ChainLinkResponse struct {
	ID            string `json:"id"`
	FromStageID   string `json:"from_stage_id"`
	ToStageID     string `json:"to_stage_id,omitempty"`
	OrderPosition int    `json:"order_position"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
}

// EvalResponse — результат проверки готовности этапа.
type EvalResponse struct {
	Advanced       bool    `json:"success"`
	FromStage      string  `json:"from_stage,omitempty"`
	ToStage        string  `json:"to_stage,omitempty"`
	TaskIDs        []int64 `json:"task_ids,omitempty"`
	Message        string  `json:"message,omitempty"`
	MissingTask    string  `json:"missing_task,omitempty"`
	IncompleteTask string  `json:"incomplete_task,omitempty"`
}

// ResolveResponse — результат создания зависимых задач.
type ResolveResponse struct {
	Success    bool          `json:"success"`
	TaskIDs    []int64       `json:"task_ids,omitempty"`
	Message    string        `json:"message,omitempty"`
	Evaluation *EvalResponse `json:"evaluation,omitempty"`
}

// TaskResponse — производственная задача из API.
type TaskResponse struct {
	ID                int64   `json:"id_zadachi"`
	Title             string  `json:"title"`
	ResponsibleUserID string  `json:"responsible_user_id"`
	ZakazID           int64   `json:"zakaz_id"`
	StageID           string  `json:"stage_id"`
	DueDate           string  `json:"due_date"`
	Status            string  `json:"status"`
	Salary            float64 `json:"salary"`
}

// NotifyResponse — результат отправки уведомления.
type NotifyResponse struct {
	Sent  int `json:"sent"`
	Total int `json:"total"`
}

// --- Request types ---

// CreateSettingRequest — создание настройки автоматизации.
type CreateSettingRequest struct {
	StageID                 string  `json:"stage_id"`
	TaskName                string  `json:"task_name"`
	TaskOrderPosition       int     `json:"task_order_position"`
	ResponsibleUserID       *string `json:"responsible_user_id,omitempty"`
	DispatcherID            *string `json:"dispatcher_id,omitempty"`
	DispatcherPercentage    int     `json:"dispatcher_percentage"`
	TaskTitleTemplate       string  `json:"task_title_template"`
	TaskDescriptionTemplate string  `json:"task_description_template"`
	PaymentAmount           float64 `json:"payment_amount"`
	DurationDays            int     `json:"duration_days"`
	StartCondition          string  `json:"start_condition"`
	DependsOnTaskID         *string `json:"depends_on_task_id,omitempty"`
}

// SendNotificationRequest — отправка push-уведомления работнику.
type SendNotificationRequest struct {
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	TaskID  *int64 `json:"task_id,omitempty"`
	OrderID *int64 `json:"order_id,omitempty"`
	URL     string `json:"url,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для API автоматизации.
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

// --- Settings ---

// ListSettings возвращает все настройки автоматизации.
func (c *Client) ListSettings() ([]SettingResponse, error) {
	var settings []SettingResponse
	err := c.list(http.MethodGet, "/api/v1/automation/settings", nil, &settings)
	return settings, err
}

// ListSettingsByStages возвращает настройки, сгруппированные по этапам.
func (c *Client) ListSettingsByStages() ([]StageGroupResponse, error) {
	var groups []StageGroupResponse
	err := c.list(http.MethodGet, "/api/v1/automation/settings/stages", nil, &groups)
	return groups, err
}

// CreateSetting создаёт настройку автоматизации.
func (c *Client) CreateSetting(req CreateSettingRequest) (*SettingResponse, error) {
	var setting SettingResponse
	err := c.post("/api/v1/automation/settings", req, &setting)
	return &setting, err
}

// UpdateSettings обновляет набор настроек. settings — JSON-массив настроек.
func (c *Client) UpdateSettings(settings json.RawMessage) ([]SettingResponse, error) {
	body := map[string]json.RawMessage{"settings": settings}
	var updated []SettingResponse
	err := c.put("/api/v1/automation/settings", body, &updated)
	return updated, err
}

// DeleteSetting удаляет настройку.
func (c *Client) DeleteSetting(id string) error {
	return c.delete("/api/v1/automation/settings/" + id)
}

// --- Chain ---

// ListChain возвращает звенья цепочки этапов.
func (c *Client) ListChain() ([]ChainLinkResponse, error) {
	var links []ChainLinkResponse
	err := c.list(http.MethodGet, "/api/v1/automation/chain", nil, &links)
	return links, err
}

// SetChainEnabled включает или выключает автоматизацию звена.
func (c *Client) SetChainEnabled(id string, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	return c.put("/api/v1/automation/chain/"+id+"/enabled", body, nil)
}

// ReorderChain переупорядочивает звенья и возвращает обновлённую цепочку.
func (c *Client) ReorderChain(ids []string) ([]ChainLinkResponse, error) {
	body := map[string][]string{"ids": ids}
	var links []ChainLinkResponse
	err := c.list(http.MethodPut, "/api/v1/automation/chain/reorder", body, &links)
	return links, err
}

// --- Engine ---

// CheckStageCompletion запускает проверку готовности этапа заказа.
func (c *Client) CheckStageCompletion(orderID int64) (*EvalResponse, error) {
	body := map[string]int64{"order_id": orderID}
	var result EvalResponse
	err := c.post("/api/v1/automation/check-stage-completion", body, &result)
	return &result, err
}

// CreateDependentTasks создаёт зависимые задачи для завершённой задачи.
func (c *Client) CreateDependentTasks(taskID int64, settingID string) (*ResolveResponse, error) {
	body := map[string]any{
		"completed_task_id":     taskID,
		"automation_setting_id": settingID,
	}
	var result ResolveResponse
	err := c.post("/api/v1/automation/create-dependent-tasks", body, &result)
	return &result, err
}

// CompleteTask завершает задачу и публикует событие автоматизации.
func (c *Client) CompleteTask(id int64) (*TaskResponse, error) {
	var task TaskResponse
	err := c.post(fmt.Sprintf("/api/v1/tasks/%d/complete", id), nil, &task)
	return &task, err
}

// --- Notifications ---

// SendNotification отправляет push-уведомление работнику.
func (c *Client) SendNotification(req SendNotificationRequest) (*NotifyResponse, error) {
	var result NotifyResponse
	err := c.post("/api/v1/notifications/send", req, &result)
	return &result, err
}

// --- HTTP helpers ---

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(lr.Data) == 0 || string(lr.Data) == "null" {
		return nil
	}

	return json.Unmarshal(lr.Data, result)
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

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
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
