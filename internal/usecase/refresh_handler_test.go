package usecase

import (
	"context"
	"testing"

	"TraderBlock/pkg/logger"
	"TraderBlock/pkg/metrics"
)

type recordingRefresher struct {
	tickers []string
	sources []string
}

func (r *recordingRefresher) RefreshTicker(_ context.Context, ticker, source string) error {
	r.tickers = append(r.tickers, ticker)
	r.sources = append(r.sources, source)
	return nil
}

func TestRefreshHandler(t *testing.T) {
	rr := &recordingRefresher{}
	h := NewRefreshHandler("analysis.refresh", rr, metrics.Noop{}, logger.NewNop())
	if h.Topic() != "analysis.refresh" {
		t.Fatalf("unexpected topic %s", h.Topic())
	}

	cases := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid", `{"ticker":"aapl"}`, false},
		{"malformed", `{"ticker":`, true},
		{"missing ticker", `{}`, true},
		{"too long", `{"ticker":"ABCDEFGHIJKLMN"}`, true},
		{"not a symbol", `{"ticker":"AA PL;"}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := h.Handle(context.Background(), []byte(tc.payload))
			if (err != nil) != tc.wantErr {
				t.Fatalf("wantErr=%v err=%v", tc.wantErr, err)
			}
		})
	}
	if len(rr.tickers) != 1 || rr.tickers[0] != "aapl" || rr.sources[0] != SourceKafka {
		t.Fatalf("unexpected refresh calls %v %v", rr.tickers, rr.sources)
	}
}
