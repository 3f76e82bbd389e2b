package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/storefront-labs/catalog-client/pkg/client"
	"github.com/storefront-labs/catalog-client/pkg/query"
)

// Settings is the proxy configuration, read from CATALOG_* environment
// variables. A .env file in the working directory is loaded first when
// present.
type Settings struct {
	BaseURL   string        `envconfig:"BASE_URL" required:"true"`
	Addr      string        `envconfig:"ADDR" default:":8080"`
	RedisAddr string        `envconfig:"REDIS_ADDR"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"30s"`
	UserAgent string        `envconfig:"USER_AGENT" default:"catalog-proxy/0.1.0"`
}

func main() {
	_ = godotenv.Load()

	var settings Settings
	if err := envconfig.Process("catalog", &settings); err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}

	cfg := client.DefaultConfig(settings.BaseURL)
	cfg.CacheTTL = settings.CacheTTL
	cfg.UserAgent = settings.UserAgent

	var redisClient *redis.Client
	if settings.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: settings.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cancel()
			log.Fatalf("Failed to connect to Redis at %s: %v", settings.RedisAddr, err)
		}
		cancel()
		cfg.Redis = redisClient
		log.Printf("Connected to Redis at %s", settings.RedisAddr)
	}

	catalog, err := client.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create catalog client: %v", err)
	}
	defer catalog.Close()

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/ready", readyHandler(redisClient, catalog))
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/catalog/products", listProductsHandler(catalog))
	http.HandleFunc("/catalog/products/", getProductHandler(catalog))
	http.HandleFunc("/catalog/categories", listCategoriesHandler(catalog))

	log.Printf("Starting catalog proxy on %s (upstream %s)", settings.Addr, settings.BaseURL)

	if err := http.ListenAndServe(settings.Addr, nil); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func readyHandler(redisClient *redis.Client, catalog *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				http.Error(w, fmt.Sprintf("Redis unavailable: %v", err), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}
}

func listProductsHandler(catalog *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := queryFromRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		page, err := catalog.ListProducts(ctx, q)
		if err != nil {
			writeClientError(w, err)
			return
		}
		writeJSON(w, page)
	}
}

func getProductHandler(catalog *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/catalog/products/")
		if id == "" || strings.Contains(id, "/") {
			writeError(w, http.StatusBadRequest, errors.New("invalid product id"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		product, err := catalog.GetProduct(ctx, id)
		if err != nil {
			writeClientError(w, err)
			return
		}
		writeJSON(w, product)
	}
}

func listCategoriesHandler(catalog *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		categories, err := catalog.ListCategories(ctx)
		if err != nil {
			writeClientError(w, err)
			return
		}
		writeJSON(w, map[string]any{"data": categories})
	}
}

// queryFromRequest maps the proxy's query string onto a catalog query.
// Unknown parameters are ignored.
func queryFromRequest(r *http.Request) (query.Query, error) {
	values := r.URL.Query()

	q := query.Query{
		Filters: query.Filters{
			Search:   values.Get("search"),
			Category: values.Get("category"),
		},
	}

	if s := values.Get("page"); s != "" {
		if _, err := fmt.Sscanf(s, "%d", &q.Page); err != nil {
			return q, fmt.Errorf("invalid page %q", s)
		}
	}
	if s := values.Get("limit"); s != "" {
		if _, err := fmt.Sscanf(s, "%d", &q.Limit); err != nil {
			return q, fmt.Errorf("invalid limit %q", s)
		}
	}
	if s := values.Get("minPrice"); s != "" {
		if _, err := fmt.Sscanf(s, "%f", &q.MinPrice); err != nil {
			return q, fmt.Errorf("invalid minPrice %q", s)
		}
	}
	if s := values.Get("maxPrice"); s != "" {
		if _, err := fmt.Sscanf(s, "%f", &q.MaxPrice); err != nil {
			return q, fmt.Errorf("invalid maxPrice %q", s)
		}
	}
	if s := values.Get("inStock"); s != "" {
		v := s == "true"
		q.InStock = &v
	}
	if s := values.Get("sortBy"); s != "" {
		q.SortBy = query.SortField(s)
	}
	if s := values.Get("sortOrder"); s != "" {
		q.SortOrder = query.SortOrder(s)
	}

	return q, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeClientError(w http.ResponseWriter, err error) {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.As(err, &apiErr) && apiErr.Class == client.ErrorClassValidation:
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusBadGateway, err)
	}
}
