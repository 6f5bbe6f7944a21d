package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "")

	cfg := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.Equal(t, 0.6, cfg.Recommend.ScoreThreshold)
	require.Equal(t, 30, cfg.Recommend.TopK)
	require.Equal(t, MaxCrawlConcurrency, cfg.Crawl.MaxConcurrency)
	require.Equal(t, 500*time.Millisecond, cfg.Crawl.PolitenessDelay)
	require.False(t, cfg.Enrichment.SoftDeleteOnSpeechFailure)
	require.Equal(t, 30*time.Minute, cfg.Chat.HistoryTTL)
	require.Len(t, cfg.Sites, 1)
	require.Len(t, cfg.Sites[0].Categories, 7)
	require.Equal(t, "Asia/Seoul", cfg.Location().String())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
crawl:
  maxConcurrency: 50
  politenessDelay: 1s
recommend:
  scoreThreshold: 0.75
enrichment:
  softDeleteOnSpeechFailure: true
sites:
  - name: 한국경제
    categories:
      - name: 경제
        url: https://www.hankyung.com/feed/economy
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	t.Setenv(databaseDSNEnv, "postgres://override")

	cfg := Load(path)

	require.Equal(t, MaxCrawlConcurrency, cfg.Crawl.MaxConcurrency)
	require.Equal(t, time.Second, cfg.Crawl.PolitenessDelay)
	require.Equal(t, 0.75, cfg.Recommend.ScoreThreshold)
	require.True(t, cfg.Enrichment.SoftDeleteOnSpeechFailure)
	require.Equal(t, "postgres://override", cfg.Database.DSN)
	require.Equal(t, "한국경제", cfg.Sites[0].Name)
	require.Equal(t, 30, cfg.Recommend.TopK)
}

func TestLoadKeepsDefaultsOnBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("crawl: [unterminated"), 0o600))

	cfg := Load(path)
	require.Equal(t, "SBS뉴스", cfg.Sites[0].Name)
}
