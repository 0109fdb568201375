// File: internal/platform/elasticsearch/index.go
package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const UsersIndexName = "users"

// UserDoc is the Elasticsearch document representation of a user profile.
// Only public profile fields are indexed; access tokens never leave Postgres.
type UserDoc struct {
	Handle      string  `json:"handle"`
	DisplayName *string `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Platform    string  `json:"platform"`
}

// defineUsersMapping returns the JSON string for the users index mapping.
func defineUsersMapping() (string, error) {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"handle": map[string]interface{}{
					"type":   "text",
					"fields": map[string]interface{}{"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256}},
				},
				"display_name": map[string]interface{}{"type": "text"},
				"avatar_url":   map[string]interface{}{"type": "keyword", "index": false},
				"platform":     map[string]interface{}{"type": "keyword"},
			},
		},
	}
	mappingBytes, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("error marshalling users mapping to JSON: %w", err)
	}
	return string(mappingBytes), nil
}

// CreateUsersIndexIfNotExists creates the users index with the defined mapping
// if it does not already exist.
func CreateUsersIndexIfNotExists(client *ESClientWrapper, logger *zap.Logger) error {
	ctx := context.Background()
	log := logger.Named("elasticsearch_index_setup")

	req := esapi.IndicesExistsRequest{
		Index: []string{UsersIndexName},
	}
	res, err := req.Do(ctx, client.Client)
	if err != nil {
		log.Error("Error checking if users index exists", zap.Error(err))
		return fmt.Errorf("error checking if users index exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		log.Info("Users index already exists", zap.String("index_name", UsersIndexName))
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Error("Error checking if users index exists, unexpected status",
			zap.String("status", res.Status()),
			zap.String("index_name", UsersIndexName),
		)
		return fmt.Errorf("error checking if users index exists: status %s", res.Status())
	}

	mappingJSON, err := defineUsersMapping()
	if err != nil {
		log.Error("Failed to define users mapping", zap.Error(err))
		return err
	}

	createReq := esapi.IndicesCreateRequest{
		Index: UsersIndexName,
		Body:  strings.NewReader(mappingJSON),
	}
	createRes, err := createReq.Do(ctx, client.Client)
	if err != nil {
		log.Error("Error creating users index", zap.Error(err), zap.String("index_name", UsersIndexName))
		return fmt.Errorf("error creating users index %s: %w", UsersIndexName, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		var errorBody map[string]interface{}
		if err := json.NewDecoder(createRes.Body).Decode(&errorBody); err != nil {
			log.Error("Failed to parse users index creation error response body", zap.Error(err), zap.String("status", createRes.Status()))
		} else {
			log.Error("Failed to create users index",
				zap.String("status", createRes.Status()),
				zap.Any("error_details", errorBody),
			)
		}
		return fmt.Errorf("failed to create users index %s: status %s", UsersIndexName, createRes.Status())
	}

	log.Info("Users index created successfully", zap.String("index_name", UsersIndexName))
	return nil
}

// IndexUser indexes or reindexes a single user profile document.
func IndexUser(ctx context.Context, client *ESClientWrapper, docID string, doc UserDoc) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("error marshalling user doc: %w", err)
	}
	req := esapi.IndexRequest{
		Index:      UsersIndexName,
		DocumentID: docID,
		Body:       strings.NewReader(string(body)),
	}
	res, err := req.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("error indexing user %s: %w", docID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("error indexing user %s: status %s", docID, res.Status())
	}
	return nil
}

// SearchHandles runs a prefix-style match query against the users index and
// returns the matching document IDs in score order.
func SearchHandles(ctx context.Context, client *ESClientWrapper, query string, limit int) ([]string, error) {
	q := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"match_bool_prefix": map[string]interface{}{
				"handle": query,
			},
		},
	}
	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("error marshalling handle search query: %w", err)
	}

	res, err := client.Search(
		client.Search.WithContext(ctx),
		client.Search.WithIndex(UsersIndexName),
		client.Search.WithBody(strings.NewReader(string(body))),
	)
	if err != nil {
		return nil, fmt.Errorf("handle search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("handle search returned status %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("error decoding handle search response: %w", err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}
