package search

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/meilisearch/meilisearch-go"

	"relocation-advisor/internal/models"
)

// SearchClient wraps the Meilisearch index behind the city autocomplete
// endpoint.
type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client: client,
		index:  "cities",
	}
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"city",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"state_id",
	})
	return err
}

// LoadCitiesCSV bulk-indexes the city list from the bundled CSV. The file has
// a header row; only the city and state_id columns are used. Safe to rerun:
// documents are keyed by id so reloads overwrite in place.
func (s *SearchClient) LoadCitiesCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open cities csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}

	cityCol, stateCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "city":
			cityCol = i
		case "state_id":
			stateCol = i
		}
	}
	if cityCol < 0 || stateCol < 0 {
		return fmt.Errorf("cities csv missing city/state_id columns")
	}

	var batch []models.City
	total := 0
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read csv line: %w", err)
		}
		line++
		batch = append(batch, models.City{
			ID:      strconv.Itoa(line),
			City:    record[cityCol],
			StateID: record[stateCol],
		})
		if len(batch) >= 5000 {
			if err := s.indexCities(batch); err != nil {
				return err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := s.indexCities(batch); err != nil {
			return err
		}
		total += len(batch)
	}

	log.Printf("[search] ✅ Indexed %d cities from %s", total, path)
	return nil
}

func (s *SearchClient) indexCities(cities []models.City) error {
	_, err := s.client.Index(s.index).AddDocuments(cities)
	return err
}

// SuggestCities returns autocomplete matches for a prefix, optionally
// restricted to one state.
func (s *SearchClient) SuggestCities(prefix, stateID string, limit int64) ([]models.City, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	req := &meilisearch.SearchRequest{
		Limit: limit,
	}
	if stateID != "" {
		req.Filter = fmt.Sprintf("state_id = %q", stateID)
	}

	result, err := s.client.Index(s.index).Search(prefix, req)
	if err != nil {
		return nil, err
	}

	cities := make([]models.City, 0, len(result.Hits))
	for _, hit := range result.Hits {
		data, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var city models.City
		if err := json.Unmarshal(data, &city); err != nil {
			continue
		}
		cities = append(cities, city)
	}
	return cities, nil
}

// DocumentCount reports the number of indexed cities, used by the health and
// admin endpoints.
func (s *SearchClient) DocumentCount() (int64, error) {
	stats, err := s.client.Index(s.index).GetStats()
	if err != nil {
		return 0, err
	}
	return stats.NumberOfDocuments, nil
}
