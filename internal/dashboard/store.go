package dashboard

import (
	"os"
	"sync"
	"time"

	"github.com/MattB543/ea-forum-clusters/internal/artifact"
	"github.com/MattB543/ea-forum-clusters/pkg/logging"
	"github.com/MattB543/ea-forum-clusters/pkg/models"
)

// Store caches the two summary artifacts and re-reads them when the files
// change on disk. Artifacts are replaced wholesale by the summarizer, so a
// successful read always observes a complete snapshot.
type Store struct {
	levelPath   string
	clusterPath string
	logger      logging.Logger

	mu         sync.RWMutex
	levels     []models.LevelSummary
	clusters   []models.ClusterSummary
	levelMod   time.Time
	clusterMod time.Time
	loaded     bool
}

// NewStore creates a store for the given artifact paths. Nothing is read
// until the first Snapshot call.
func NewStore(levelPath, clusterPath string, logger logging.Logger) *Store {
	return &Store{
		levelPath:   levelPath,
		clusterPath: clusterPath,
		logger:      logger,
	}
}

// Snapshot returns the current artifact rows, refreshing from disk first if
// the files changed since the last read. Returns artifact.ErrMissing when
// either artifact is absent (wrapped with the offending path).
func (s *Store) Snapshot() ([]models.LevelSummary, []models.ClusterSummary, error) {
	levelMod, clusterMod := modTime(s.levelPath), modTime(s.clusterPath)

	s.mu.RLock()
	if s.loaded && levelMod.Equal(s.levelMod) && clusterMod.Equal(s.clusterMod) {
		levels, clusters := s.levels, s.clusters
		s.mu.RUnlock()
		return levels, clusters, nil
	}
	s.mu.RUnlock()

	return s.reload(levelMod, clusterMod)
}

// ClustersForLevel returns the cluster rows for one level, preserving the
// artifact's post-count ordering.
func (s *Store) ClustersForLevel(level int) ([]models.ClusterSummary, error) {
	_, clusters, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	var out []models.ClusterSummary
	for _, c := range clusters {
		if c.Level == level {
			out = append(out, c)
		}
	}
	return out, nil
}

// AvailableLevels returns the distinct levels present in the cluster
// artifact, in artifact order deduplicated.
func (s *Store) AvailableLevels() ([]int, error) {
	levels, _, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(levels))
	for _, l := range levels {
		out = append(out, l.Level)
	}
	return out, nil
}

func (s *Store) reload(levelMod, clusterMod time.Time) ([]models.LevelSummary, []models.ClusterSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	levels, err := artifact.ReadLevelSummaries(s.levelPath)
	if err != nil {
		return nil, nil, err
	}
	clusters, err := artifact.ReadClusterSummaries(s.clusterPath)
	if err != nil {
		return nil, nil, err
	}

	s.levels = levels
	s.clusters = clusters
	s.levelMod = levelMod
	s.clusterMod = clusterMod
	s.loaded = true

	if s.logger != nil {
		s.logger.WithFields(logging.Fields{
			"levels":   len(levels),
			"clusters": len(clusters),
		}).Info("Summary artifacts loaded")
	}
	return levels, clusters, nil
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
