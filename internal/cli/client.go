package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// WorkflowResponse — workflow из API.
type WorkflowResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Key         string `json:"key"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// WorkflowFormResponse — слот шаблона из API.
type WorkflowFormResponse struct {
	ID            string `json:"id"`
	WorkflowID    string `json:"workflow_id"`
	FormID        string `json:"form_id"`
	Required      bool   `json:"required"`
	AllowMultiple bool   `json:"allow_multiple"`
	SortOrder     int    `json:"sort_order"`
	DefaultName   string `json:"default_name,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// RunResponse — run из API.
type RunResponse struct {
	ID              string `json:"id"`
	WorkflowID      string `json:"workflow_id"`
	DisplayName     string `json:"display_name"`
	Status          string `json:"status"`
	LockedAt        string `json:"locked_at,omitempty"`
	CancelledAt     string `json:"cancelled_at,omitempty"`
	CancelledReason string `json:"cancelled_reason,omitempty"`
	RequiredTotal   int    `json:"required_total"`
	RequiredDone    int    `json:"required_done"`
	CreatedBy       string `json:"created_by"`
	CreatedAt       string `json:"created_at"`
}

// ItemResponse — item из API.
type ItemResponse struct {
	ID             string `json:"id"`
	RunID          string `json:"run_id"`
	FormID         string `json:"form_id"`
	Name           string `json:"name,omitempty"`
	SequenceNum    int    `json:"sequence_num"`
	Required       bool   `json:"required"`
	AllowMultiple  bool   `json:"allow_multiple"`
	Status         string `json:"status"`
	AssignedUserID string `json:"assigned_user_id,omitempty"`
	AssigneeName   string `json:"assignee_name,omitempty"`
	SkippedReason  string `json:"skipped_reason,omitempty"`
	FormSessionURL string `json:"form_session_url,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// AggregateResponse — агрегатный блок run.
type AggregateResponse struct {
	Status        string `json:"status"`
	RequiredTotal int    `json:"required_total"`
	RequiredDone  int    `json:"required_done"`
}

// RunDetailResponse — дашборд-проекция run из API.
type RunDetailResponse struct {
	Run      RunResponse       `json:"run"`
	Items    []ItemResponse    `json:"items"`
	Progress AggregateResponse `json:"progress"`
}

// MutationResponse — ответ мутирующих endpoints.
type MutationResponse struct {
	Item      *ItemResponse     `json:"item,omitempty"`
	Run       RunResponse       `json:"run"`
	Aggregate AggregateResponse `json:"aggregate"`
}

// --- Request types ---

// CreateWorkflowRequest — создание workflow.
type CreateWorkflowRequest struct {
	Title       string `json:"title"`
	Key         string `json:"key"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

// UpdateWorkflowRequest — обновление workflow.
type UpdateWorkflowRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// AddFormRequest — добавление слота в шаблон.
type AddFormRequest struct {
	FormID        string `json:"form_id"`
	Required      bool   `json:"required"`
	AllowMultiple bool   `json:"allow_multiple"`
	SortOrder     int    `json:"sort_order"`
	DefaultName   string `json:"default_name,omitempty"`
}

// CreateRunRequest — создание run.
type CreateRunRequest struct {
	WorkflowID  string `json:"workflow_id"`
	DisplayName string `json:"display_name"`
}

// ListRunsOpts — параметры фильтрации runs.
type ListRunsOpts struct {
	WorkflowID string
	Status     string
	Mine       bool
	Limit      int
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
		State   *struct {
			RunStatus  string `json:"run_status,omitempty"`
			ItemStatus string `json:"item_status,omitempty"`
		} `json:"state,omitempty"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Formflow API.
type Client struct {
	baseURL    string
	actorID    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API. actorID попадает в заголовок
// X-Actor-Id каждого запроса; без него мутации отклоняются сервером.
func NewClient(baseURL, actorID string) *Client {
	return &Client{
		baseURL: baseURL,
		actorID: actorID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Workflows ---

// ListWorkflows возвращает все workflows.
func (c *Client) ListWorkflows() ([]WorkflowResponse, error) {
	var workflows []WorkflowResponse
	err := c.list("/api/v1/workflows", nil, &workflows)
	return workflows, err
}

// CreateWorkflow создаёт новый workflow.
func (c *Client) CreateWorkflow(req CreateWorkflowRequest) (*WorkflowResponse, error) {
	var workflow WorkflowResponse
	err := c.post("/api/v1/workflows", req, &workflow)
	return &workflow, err
}

// GetWorkflow возвращает workflow по ID.
func (c *Client) GetWorkflow(id string) (*WorkflowResponse, error) {
	var workflow WorkflowResponse
	err := c.get("/api/v1/workflows/"+id, &workflow)
	return &workflow, err
}

// UpdateWorkflow обновляет метаданные workflow.
func (c *Client) UpdateWorkflow(id string, req UpdateWorkflowRequest) (*WorkflowResponse, error) {
	var workflow WorkflowResponse
	err := c.put("/api/v1/workflows/"+id, req, &workflow)
	return &workflow, err
}

// ListForms возвращает слоты шаблона.
func (c *Client) ListForms(workflowID string) ([]WorkflowFormResponse, error) {
	var forms []WorkflowFormResponse
	err := c.list("/api/v1/workflows/"+workflowID+"/forms", nil, &forms)
	return forms, err
}

// AddForm добавляет слот в шаблон.
func (c *Client) AddForm(workflowID string, req AddFormRequest) (*WorkflowFormResponse, error) {
	var form WorkflowFormResponse
	err := c.post("/api/v1/workflows/"+workflowID+"/forms", req, &form)
	return &form, err
}

// --- Runs ---

// ListRuns возвращает список runs с фильтрацией.
func (c *Client) ListRuns(opts ListRunsOpts) ([]RunResponse, error) {
	params := url.Values{}
	if opts.WorkflowID != "" {
		params.Set("workflow_id", opts.WorkflowID)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Mine {
		params.Set("mine", "true")
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var runs []RunResponse
	err := c.list("/api/v1/workflow-runs", params, &runs)
	return runs, err
}

// CreateRun создаёт run по шаблону.
func (c *Client) CreateRun(req CreateRunRequest) (*RunDetailResponse, error) {
	var detail RunDetailResponse
	err := c.post("/api/v1/workflow-runs", req, &detail)
	return &detail, err
}

// GetRun возвращает дашборд-проекцию run.
func (c *Client) GetRun(id string) (*RunDetailResponse, error) {
	var detail RunDetailResponse
	err := c.get("/api/v1/workflow-runs/"+id, &detail)
	return &detail, err
}

// LockRun блокирует run.
func (c *Client) LockRun(id string) (*MutationResponse, error) {
	var res MutationResponse
	err := c.post("/api/v1/workflow-runs/"+id+"/lock", nil, &res)
	return &res, err
}

// CancelRun отменяет run с причиной.
func (c *Client) CancelRun(id, reason string) (*MutationResponse, error) {
	body := map[string]string{"reason": reason}
	var res MutationResponse
	err := c.post("/api/v1/workflow-runs/"+id+"/cancel", body, &res)
	return &res, err
}

// --- Items ---

// AssignItem назначает исполнителя. Пустой userID снимает назначение.
func (c *Client) AssignItem(itemID, userID string) (*MutationResponse, error) {
	body := map[string]*string{"assigned_user_id": nil}
	if userID != "" {
		body["assigned_user_id"] = &userID
	}
	var res MutationResponse
	err := c.post("/api/v1/workflow-items/"+itemID+"/assign", body, &res)
	return &res, err
}

// StartItem начинает работу по item, возвращает сессию заполнения.
func (c *Client) StartItem(itemID string) (*MutationResponse, error) {
	var res MutationResponse
	err := c.post("/api/v1/workflow-items/"+itemID+"/start", nil, &res)
	return &res, err
}

// SkipItem пропускает item с причиной.
func (c *Client) SkipItem(itemID, reason string) (*MutationResponse, error) {
	body := map[string]string{"reason": reason}
	var res MutationResponse
	err := c.post("/api/v1/workflow-items/"+itemID+"/skip", body, &res)
	return &res, err
}

// AddItem добавляет повторный item для allow_multiple слота.
func (c *Client) AddItem(fromItemID, assignedUserID string) (*MutationResponse, error) {
	body := map[string]any{"fromItemId": fromItemID}
	if assignedUserID != "" {
		body["assigned_user_id"] = assignedUserID
	}
	var res MutationResponse
	err := c.post("/api/v1/workflow-items/add", body, &res)
	return &res, err
}

// MarkSubmitted вручную применяет callback Form Service.
// Нужен оперативно: когда callback потерян, а форма отправлена.
func (c *Client) MarkSubmitted(itemID, runID string) (*MutationResponse, error) {
	body := map[string]string{
		"workflow_item_id": itemID,
		"workflow_run_id":  runID,
	}
	var res MutationResponse
	err := c.post("/api/v1/workflow-items/mark-submitted", body, &res)
	return &res, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
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
	if c.actorID != "" {
		req.Header.Set("X-Actor-Id", c.actorID)
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

	msg := fmt.Sprintf("%s: %s", er.Error.Code, er.Error.Message)
	if st := er.Error.State; st != nil {
		if st.RunStatus != "" {
			msg += fmt.Sprintf(" (run: %s)", st.RunStatus)
		}
		if st.ItemStatus != "" {
			msg += fmt.Sprintf(" (item: %s)", st.ItemStatus)
		}
	}
	return fmt.Errorf("%s", msg)
}
