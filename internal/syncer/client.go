package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tasksync/internal/checksum"
	"tasksync/internal/database"
	"tasksync/internal/models"

	"github.com/rs/zerolog"
)

// Client transmits batches to the remote authority. A transport-level
// failure (timeout, connection error, non-2xx) is a whole-batch failure;
// the orchestrator fails every entry in that batch individually.
type Client struct {
	baseURL string
	http    *http.Client
	db      *database.DB
	logger  *zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, db *database.DB, logger *zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		db:      db,
		logger:  logger,
	}
}

// SendBatch marks every task in the batch in-progress locally, attaches the
// checksum and transmits, returning one outcome per submitted entry.
func (c *Client) SendBatch(ctx context.Context, entries []models.MutationEntry) (*models.BatchResponse, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("batch is empty")
	}

	if err := c.db.SetTasksSyncStatus(ctx, taskIDs(entries), models.SyncStatusInProgress); err != nil {
		return nil, fmt.Errorf("mark batch in-progress: %w", err)
	}

	items := make([]models.BatchItem, len(entries))
	for i, entry := range entries {
		items[i] = models.BatchItem{
			ClientID:  entry.ID,
			TaskID:    entry.TaskID,
			Operation: entry.Operation,
			Data:      entry.Snapshot,
		}
	}

	sum, err := checksum.Fingerprint(items)
	if err != nil {
		return nil, fmt.Errorf("fingerprint batch: %w", err)
	}

	payload := models.BatchRequest{
		Items:           items,
		ClientTimestamp: time.Now().UTC(),
		Checksum:        sum,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/batch", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("remote rejected batch: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var decoded models.BatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode batch response: %w", err)
	}

	c.logger.Debug().
		Int("items", len(items)).
		Int("outcomes", len(decoded.ProcessedItems)).
		Msg("batch transmitted")

	return &decoded, nil
}

func taskIDs(entries []models.MutationEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.TaskID]; ok {
			continue
		}
		seen[entry.TaskID] = struct{}{}
		ids = append(ids, entry.TaskID)
	}
	return ids
}
