package statistic

import (
	"fmt"
	"os"
	"path/filepath"
	"seatcheck/internal/models"
	"seatcheck/internal/providers"
	"seatcheck/internal/statistic/interfaces"
	"time"

	json "github.com/goccy/go-json"
)

// PresenceSnapshotter is the part of the presence ledger that is persisted.
type PresenceSnapshotter interface {
	Snapshot() models.LedgerSnapshot
	Restore(snap models.LedgerSnapshot)
}

// FileManager writes the presence ledger, and the rating samples when they
// live only in memory, to a single zstd compressed file.
type FileManager struct {
	presence   PresenceSnapshotter
	ratings    models.RatingSnapshotter
	compressor interfaces.CompressorInterface
	logger     providers.Logger
	now        func() time.Time
}

func NewFileManager(compressor interfaces.CompressorInterface, presence PresenceSnapshotter, storage *providers.StorageProvider, logger providers.Logger) *FileManager {
	fm := &FileManager{
		presence:   presence,
		compressor: compressor,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
	if storage != nil {
		if ratings, ok := storage.RatingSnapshotter(); ok {
			fm.ratings = ratings
		}
	}
	return fm
}

func (f *FileManager) snapshot() models.Snapshot {
	snap := models.Snapshot{
		Version:  models.SnapshotVersion,
		SavedAt:  f.now(),
		Presence: f.presence.Snapshot(),
	}
	if f.ratings != nil {
		snap.Ratings = f.ratings.Samples()
	}
	return snap
}

func (f *FileManager) SaveToFile(fileName string) error {
	jsonData, err := json.Marshal(f.snapshot())
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return err
	}
	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

// LoadFromFile restores a snapshot. A missing file is a fresh start.
func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return fmt.Errorf("decompress snapshot: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(decompressedData, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version == 0 || snap.Version > models.SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	f.presence.Restore(snap.Presence)
	if f.ratings != nil {
		f.ratings.RestoreSamples(snap.Ratings)
	} else if len(snap.Ratings) > 0 {
		f.logger.Warnf(providers.TypeStorage, "Ignoring %d snapshot ratings, the configured store keeps its own", len(snap.Ratings))
	}

	f.logger.Infof(providers.TypeStorage, "Restored snapshot from %s: %d open presences, %d closed, %d ratings",
		snap.SavedAt.Format(time.RFC3339), len(snap.Presence.Open), len(snap.Presence.History), len(snap.Ratings))
	return nil
}
