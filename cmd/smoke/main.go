package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"bankist.app/internal/config"
	"bankist.app/internal/httpapi"
	"bankist.app/internal/obs"
)

type response struct {
	Token string         `json:"token"`
	Frame *httpapi.Frame `json:"frame"`
}

type client struct {
	base  string
	token string
	http  *http.Client
}

func (c *client) call(ctx context.Context, method, path string, body any) (response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return response{}, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return response{}, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return response{}, err
	}
	if out.Frame == nil {
		return response{}, fmt.Errorf("%s %s: missing frame", method, path)
	}
	return out, nil
}

func expectCalls(step string, f *httpapi.Frame, want ...string) error {
	if len(f.Calls) != len(want) {
		return fmt.Errorf("%s: rendered %v, want %v", step, f.Calls, want)
	}
	for i := range want {
		if f.Calls[i] != want[i] {
			return fmt.Errorf("%s: rendered %v, want %v", step, f.Calls, want)
		}
	}
	return nil
}

func run(ctx context.Context, c *client, logger *zap.Logger) error {
	out, err := c.call(ctx, http.MethodPost, "/v1/login", map[string]string{"username": "jd", "pin": "2222"})
	if err != nil {
		return err
	}
	if out.Token == "" {
		return fmt.Errorf("login: no token issued")
	}
	c.token = out.Token
	logger.Info("logged in", zap.String("welcome", out.Frame.Welcome), zap.String("balance", out.Frame.Balance))

	out, err = c.call(ctx, http.MethodPost, "/v1/transfers", map[string]string{"to": "js", "amount": "1"})
	if err != nil {
		return err
	}
	if err := expectCalls("transfer", out.Frame, "movements", "balance", "summary"); err != nil {
		return err
	}
	logger.Info("transfer posted", zap.String("balance", out.Frame.Balance))

	out, err = c.call(ctx, http.MethodPost, "/v1/transfers", map[string]string{"to": "jd", "amount": "1"})
	if err != nil {
		return err
	}
	if err := expectCalls("self transfer", out.Frame); err != nil {
		return err
	}

	out, err = c.call(ctx, http.MethodPost, "/v1/loans", map[string]string{"amount": "100"})
	if err != nil {
		return err
	}
	if err := expectCalls("loan", out.Frame, "movements", "balance", "summary"); err != nil {
		return err
	}
	logger.Info("loan granted", zap.String("balance", out.Frame.Balance))

	out, err = c.call(ctx, http.MethodPost, "/v1/sort", nil)
	if err != nil {
		return err
	}
	if err := expectCalls("sort", out.Frame, "movements"); err != nil {
		return err
	}
	return nil
}

func checkHealth(ctx context.Context, addr string) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer conn.Close()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("grpc health: %s", resp.GetStatus())
	}
	return nil
}

func main() {
	logger := obs.Logger()
	defer func() { _ = logger.Sync() }()

	base := config.Env("BANKIST_SMOKE_URL", "http://localhost:8080")
	grpcAddr := config.Env("BANKIST_SMOKE_GRPC_ADDR", "localhost:9091")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := checkHealth(ctx, grpcAddr); err != nil {
		logger.Fatal("health check failed", zap.String("addr", grpcAddr), zap.Error(err))
	}
	c := &client{base: base, http: &http.Client{Timeout: 5 * time.Second}}
	if err := run(ctx, c, logger); err != nil {
		logger.Fatal("smoke test failed", zap.Error(err))
	}
	logger.Info("smoke test passed", zap.String("url", base))
}
