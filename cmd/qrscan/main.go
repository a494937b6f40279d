// Command qrscan reads a customer QR code from an image file or from a
// directory of camera snapshots. The code can be resolved against the local
// database (-local) or submitted to the server's scan endpoint (-server).
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/config"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/database"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/dto"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/identity"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/logging"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/qr"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/scanner"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/services"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/tenant"
)

func main() {
	file := flag.String("file", "", "decode a single image file")
	dir := flag.String("dir", "", "poll a directory of camera snapshots")
	business := flag.String("business", "", "only accept codes issued for this business slug")
	interval := flag.Duration("interval", scanner.DefaultInterval, "polling interval in directory mode")
	timeout := flag.Duration("timeout", 2*time.Minute, "give up after this long in directory mode")
	server := flag.String("server", "", "base URL of the API, e.g. http://localhost:8080")
	token := flag.String("token", os.Getenv("CLUB_TOKEN"), "staff access token used with -server")
	local := flag.Bool("local", false, "resolve the code against the configured database")
	flag.Parse()

	cfg := config.Load()
	logging.Setup(cfg.AppEnv)

	if (*file == "") == (*dir == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -file or -dir is required")
		flag.Usage()
		os.Exit(2)
	}
	if (*local || *server != "") && *business == "" {
		fmt.Fprintln(os.Stderr, "-business is required with -local and -server")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var match scanner.MatchFunc = func(_ context.Context, _ string, p identity.Payload) error {
		return checkScope(p, *business)
	}
	var resolve func(ctx context.Context, raw string) (*dto.ScanResponse, error)
	if *local {
		svc, biz, err := localResolver(cfg, *business)
		if err != nil {
			slog.Error("local resolver unavailable", "error", err)
			os.Exit(1)
		}
		defer database.Close()
		match = svc.Matcher(biz)
		resolve = func(ctx context.Context, raw string) (*dto.ScanResponse, error) {
			customer, p, err := svc.Resolve(ctx, raw, biz)
			if err != nil {
				return nil, err
			}
			return &dto.ScanResponse{Success: true, Customer: customer, Signed: p.Signed()}, nil
		}
	}

	var (
		raw string
		err error
	)
	if *file != "" {
		raw, err = scanFile(ctx, *file, match)
	} else {
		raw, err = scanDir(ctx, *dir, match, *interval, *timeout)
	}
	if err != nil {
		if reason := services.RejectionReason(err); reason != "" {
			slog.Error("code rejected", "reason", reason, "error", err)
		} else {
			slog.Error("scan failed", "error", err)
		}
		os.Exit(1)
	}

	if resolve != nil {
		resp, err := resolve(ctx, raw)
		if err != nil {
			slog.Error("resolve failed", "error", err)
			os.Exit(1)
		}
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
		return
	}
	if *server == "" {
		fmt.Println(raw)
		return
	}
	if err := submit(ctx, *server, *business, *token, raw); err != nil {
		slog.Error("submit failed", "error", err)
		os.Exit(1)
	}
}

func localResolver(cfg *config.Config, slug string) (*services.IdentityService, *models.Business, error) {
	if err := database.Connect(cfg); err != nil {
		return nil, nil, err
	}
	registry, err := tenant.Load(database.DB)
	if err != nil {
		return nil, nil, err
	}
	biz, err := registry.Lookup(database.DB, slug)
	if err != nil {
		return nil, nil, err
	}
	signer, err := identity.NewSigner(cfg.QRSecret, cfg.QRTokenTTL)
	if err != nil {
		return nil, nil, err
	}
	return services.NewIdentityService(database.DB, signer, cfg.QRRequireSignature), biz, nil
}

func scanFile(ctx context.Context, path string, match scanner.MatchFunc) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	raw, p, err := scanner.ScanImage(qr.NewDecoder(), f)
	if err != nil {
		return "", err
	}
	if err := match(ctx, raw, p); err != nil {
		return "", err
	}
	return raw, nil
}

func scanDir(ctx context.Context, dir string, match scanner.MatchFunc, interval, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	session := scanner.NewSession(scanner.Config{
		Device:   scanner.NewDirDevice(dir),
		Decoder:  qr.NewDecoder(),
		Interval: interval,
		Match:    match,
		OnReject: func(p identity.Payload, err error) {
			slog.Warn("code rejected", "user_id", p.UserID, "business_slug", p.BusinessSlug, "error", err)
		},
	})
	if err := session.Start(ctx); err != nil {
		return "", err
	}
	defer session.Stop()

	slog.Info("waiting for a customer code", "dir", dir, "interval", interval)
	res, err := session.Wait(ctx)
	if err != nil {
		if errors.Is(err, scanner.ErrStopped) || errors.Is(err, context.DeadlineExceeded) {
			return "", errors.New("no customer code seen before timeout")
		}
		return "", err
	}
	return res.Raw, nil
}

func checkScope(p identity.Payload, business string) error {
	if p.Type != identity.TypeCustomer {
		return fmt.Errorf("not a customer code (type %q)", p.Type)
	}
	if business != "" && p.BusinessSlug != "" && p.BusinessSlug != business {
		return fmt.Errorf("code belongs to %q, not %q", p.BusinessSlug, business)
	}
	return nil
}

func submit(ctx context.Context, server, business, token, raw string) error {
	body, err := json.Marshal(dto.ScanRequest{Payload: raw})
	if err != nil {
		return err
	}

	url := strings.TrimRight(server, "/") + "/api/business/" + business + "/scan"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("server answered %s", resp.Status)
	}
	return nil
}
