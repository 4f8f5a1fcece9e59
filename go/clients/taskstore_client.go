package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mcdev12/quizbuzz/go/internal/models"
)

// TaskStoreClient fetches question sets from the external task service. Used
// instead of the Postgres repository when the task store is only reachable
// over its HTTP API.
type TaskStoreClient struct {
	*BaseClient
}

// NewTaskStoreClient creates a task-store client. The API key is optional.
func NewTaskStoreClient(baseURL, apiKey string) *TaskStoreClient {
	base := NewBaseClient(baseURL)
	base.SetHeader("Accept", "application/json")
	if apiKey != "" {
		base.SetHeader("Authorization", "Bearer "+apiKey)
	}
	return &TaskStoreClient{BaseClient: base}
}

type questionSetResponse struct {
	ID        string            `json:"id"`
	Questions []models.Question `json:"questions"`
}

// GetQuestionSet fetches all questions of a set in play order.
func (c *TaskStoreClient) GetQuestionSet(ctx context.Context, setID string) ([]models.Question, error) {
	endpoint := "/api/question-sets/" + url.PathEscape(setID)
	body, err := c.MakeRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch question set %s: %w", setID, err)
	}

	var resp questionSetResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse question set %s: %w", setID, err)
	}
	if len(resp.Questions) == 0 {
		return nil, fmt.Errorf("question set %s is empty", setID)
	}
	return resp.Questions, nil
}
