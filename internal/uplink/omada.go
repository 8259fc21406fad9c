package uplink

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"

	"wan_failover/internal/config"
	"wan_failover/internal/logger"
)

// Prober answers the single question the monitor loop asks: is the primary
// uplink online? Any transport, timeout, or authentication failure maps to
// offline, so uncertainty favors powering the backup.
type Prober interface {
	Check(ctx context.Context) bool
}

// WAN port identification in the gateway's portStats: the WAN-type port
// numbered 1 carries the monitored uplink.
const (
	wanPortType   = 0
	wanPortNumber = 1
	internetUp    = 1
)

// OmadaProber queries a TP-Link Omada controller for the gateway's WAN
// status. Each Check performs a fresh login; the controller session is not
// kept between ticks.
type OmadaProber struct {
	cfg    config.Omada
	client *http.Client
	log    *logger.Logger
}

func NewOmadaProber(cfg config.Omada, log *logger.Logger) *OmadaProber {
	transport := &http.Transport{}
	if cfg.InsecureTLS {
		// Omada controllers commonly run with self-signed certificates.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	// Cookie jar carries the controller session between login and query.
	jar, _ := cookiejar.New(nil)
	return &OmadaProber{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			Jar:       jar,
		},
		log: log,
	}
}

type omadaLoginResult struct {
	OmadacID string `json:"omadacId"`
	Token    string `json:"token"`
}

type omadaEnvelope struct {
	ErrorCode int             `json:"errorCode"`
	Msg       string          `json:"msg"`
	Result    json.RawMessage `json:"result"`
}

type omadaPortStat struct {
	Type          int `json:"type"`
	Port          int `json:"port"`
	InternetState int `json:"internetState"`
}

type omadaGatewayResult struct {
	PortStats []omadaPortStat `json:"portStats"`
}

// Check reports whether the monitored WAN port has internet connectivity.
func (p *OmadaProber) Check(ctx context.Context) bool {
	online, err := p.wanStatus(ctx)
	if err != nil {
		if p.log != nil {
			p.log.Errorw("uplink probe failed, treating as offline", "err", err)
		}
		return false
	}
	return online
}

func (p *OmadaProber) wanStatus(ctx context.Context) (bool, error) {
	omadacID, token, err := p.login(ctx)
	if err != nil {
		return false, err
	}

	gw, err := p.gateway(ctx, omadacID, token)
	if err != nil {
		return false, err
	}

	for _, port := range gw.PortStats {
		if port.Type == wanPortType && port.Port == wanPortNumber {
			return port.InternetState == internetUp, nil
		}
	}
	return false, fmt.Errorf("gateway %s reports no WAN port stats", p.cfg.GatewayMAC)
}

func (p *OmadaProber) login(ctx context.Context) (omadacID, token string, err error) {
	body, err := json.Marshal(map[string]string{
		"username": p.cfg.Username,
		"password": p.cfg.Password,
	})
	if err != nil {
		return "", "", err
	}

	url := p.cfg.URL + "/api/v2/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")

	env, err := p.do(req)
	if err != nil {
		return "", "", fmt.Errorf("omada login: %w", err)
	}

	var result omadaLoginResult
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return "", "", fmt.Errorf("omada login result: %w", err)
	}
	if result.OmadacID == "" || result.Token == "" {
		return "", "", fmt.Errorf("omada login response missing omadacId or token")
	}
	return result.OmadacID, result.Token, nil
}

func (p *OmadaProber) gateway(ctx context.Context, omadacID, token string) (*omadaGatewayResult, error) {
	url := fmt.Sprintf("%s/%s/api/v2/sites/%s/gateways/%s",
		p.cfg.URL, omadacID, p.cfg.SiteID, p.cfg.GatewayMAC)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Csrf-Token", token)

	env, err := p.do(req)
	if err != nil {
		return nil, fmt.Errorf("omada gateway query: %w", err)
	}

	var result omadaGatewayResult
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return nil, fmt.Errorf("omada gateway result: %w", err)
	}
	return &result, nil
}

// do executes the request and decodes the controller's standard envelope,
// treating a non-zero errorCode as a failure.
func (p *OmadaProber) do(req *http.Request) (*omadaEnvelope, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var env omadaEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	if env.ErrorCode != 0 {
		return nil, fmt.Errorf("controller error %d: %s", env.ErrorCode, env.Msg)
	}
	return &env, nil
}
