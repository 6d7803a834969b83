package retrieval

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/tidwall/gjson"
)

// ESConfig locates the cluster and index holding the corpus.
type ESConfig struct {
	Scheme      string
	Host        string
	Port        int
	User        string
	Password    string
	VerifyCerts bool
	MaxRetries  int
	Index       string
	Limit       int
}

// ElasticsearchSource reads documents with name and content fields from an index.
type ElasticsearchSource struct {
	client *elasticsearch.Client
	index  string
	limit  int
}

func NewElasticsearchSource(cfg ESConfig) (*ElasticsearchSource, error) {
	addr := fmt.Sprintf("%s://%s:%d", cfg.Scheme, cfg.Host, cfg.Port)

	esCfg := elasticsearch.Config{
		Addresses:  []string{addr},
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.User != "" {
		esCfg.Username = cfg.User
		esCfg.Password = cfg.Password
	}
	if !cfg.VerifyCerts {
		esCfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // #nosec G402 - user explicitly disabled cert verification
			},
		}
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch.NewClient: %w", err)
	}
	return &ElasticsearchSource{client: client, index: cfg.Index, limit: cfg.Limit}, nil
}

func (s *ElasticsearchSource) Name() string { return "elasticsearch:" + s.index }

// TestConnection pings the cluster
func (s *ElasticsearchSource) TestConnection(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("ping error: %s", res.Status())
	}
	return nil
}

func (s *ElasticsearchSource) Load(ctx context.Context) ([]Document, error) {
	body, err := json.Marshal(map[string]interface{}{
		"size":    s.limit,
		"query":   map[string]interface{}{"match_all": map[string]interface{}{}},
		"_source": []string{"name", "content"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.index, err)
	}
	defer res.Body.Close()

	raw, err := readBody(res.Body, res.Status(), res.IsError())
	if err != nil {
		return nil, err
	}
	return parseHits(raw), nil
}

func readBody(r io.Reader, status string, isError bool) ([]byte, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if isError {
		reason := gjson.GetBytes(b, "error.reason").String()
		if reason == "" {
			reason = string(b)
		}
		return nil, fmt.Errorf("elasticsearch error %s: %s", status, reason)
	}
	return b, nil
}

func parseHits(raw []byte) []Document {
	var docs []Document
	gjson.GetBytes(raw, "hits.hits").ForEach(func(_, hit gjson.Result) bool {
		content := hit.Get("_source.content").String()
		if content == "" {
			return true
		}
		name := hit.Get("_source.name").String()
		if name == "" {
			name = hit.Get("_id").String()
		}
		docs = append(docs, Document{Name: name, Content: content})
		return true
	})
	return docs
}
