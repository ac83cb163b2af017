// Package store provides SQLite persistence for trained model artifacts,
// decision parameters, and verdict history.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abelbrown/baitline/internal/decide"
	"github.com/abelbrown/baitline/internal/diverge"
	"github.com/abelbrown/baitline/internal/topic"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested artifact has never been saved.
var ErrNotFound = errors.New("store: not found")

// ErrConfigMismatch is returned when a stored model was trained against a
// different encoder configuration than the one now requested. Scoring with
// mismatched artifacts would produce silently wrong divergences, so loading
// fails instead.
var ErrConfigMismatch = errors.New("store: model configuration mismatch")

// ModelInfo records the encoder configuration a topic model was saved
// alongside. Both spans of a document must be encoded with exactly this
// configuration for divergences to be comparable.
type ModelInfo struct {
	EmbedDim   int
	EmbedModel string
	SavedAt    time.Time
}

// Check verifies the stored configuration against the one now in use.
func (mi ModelInfo) Check(embedDim int, embedModel string) error {
	if mi.EmbedDim != embedDim {
		return fmt.Errorf("%w: stored embedding dimension %d, configured %d",
			ErrConfigMismatch, mi.EmbedDim, embedDim)
	}
	if mi.EmbedModel != embedModel {
		return fmt.Errorf("%w: stored encoder %q, configured %q",
			ErrConfigMismatch, mi.EmbedModel, embedModel)
	}
	return nil
}

// VerdictRecord is one scored article, as persisted.
type VerdictRecord struct {
	ID                int64
	ArticleID         string
	URL               string
	Headline          string
	Label             decide.Label
	Probability       float64
	TopicDivergence   float64
	EmbeddingDistance float64
	Combined          float64
	CreatedAt         time.Time
}

// Stats summarizes the verdict history.
type Stats struct {
	Total           int
	Clickbait       int
	MeanProbability float64
}

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	// Build connection string based on database type
	connStr := dbPath
	if dbPath == ":memory:" {
		// For in-memory databases, use shared cache mode so all connections
		// in the pool see the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// For in-memory databases, limit to 1 connection to avoid issues
	// with multiple connections getting different databases
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Enable WAL mode for file-based databases (not :memory:)
	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS model (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		topics INTEGER NOT NULL,
		alpha REAL NOT NULL,
		beta REAL NOT NULL,
		seed INTEGER NOT NULL,
		embed_dim INTEGER NOT NULL,
		embed_model TEXT NOT NULL,
		saved_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vocab (
		idx INTEGER PRIMARY KEY,
		word TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS word_topic (
		topic INTEGER NOT NULL,
		word_idx INTEGER NOT NULL,
		prob REAL NOT NULL,
		PRIMARY KEY (topic, word_idx)
	);

	CREATE TABLE IF NOT EXISTS params (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		weights TEXT NOT NULL,
		coefficients TEXT NOT NULL,
		saved_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS verdicts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		article_id TEXT NOT NULL,
		url TEXT NOT NULL,
		headline TEXT NOT NULL,
		label TEXT NOT NULL,
		probability REAL NOT NULL,
		topic_divergence REAL NOT NULL,
		embedding_distance REAL NOT NULL,
		combined REAL NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_verdicts_created ON verdicts(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_verdicts_article ON verdicts(article_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveModel persists a trained topic model together with the encoder
// configuration it was trained against. Replaces any previous model.
func (s *Store) SaveModel(m *topic.Model, embedDim int, embedModel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM model", "DELETE FROM vocab", "DELETE FROM word_topic"} {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	_, err = tx.Exec(`
		INSERT INTO model (id, topics, alpha, beta, seed, embed_dim, embed_model, saved_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
	`, m.TopicCount(), m.Alpha(), m.Beta(), m.Seed(), embedDim, embedModel, time.Now())
	if err != nil {
		return err
	}

	vocabStmt, err := tx.Prepare("INSERT INTO vocab (idx, word) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer vocabStmt.Close()

	for i, word := range m.Vocabulary() {
		if _, err := vocabStmt.Exec(i, word); err != nil {
			return err
		}
	}

	probStmt, err := tx.Prepare("INSERT INTO word_topic (topic, word_idx, prob) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer probStmt.Close()

	for k, row := range m.WordTopicMatrix() {
		for w, prob := range row {
			if _, err := probStmt.Exec(k, w, prob); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// LoadModel restores the saved topic model and its encoder configuration.
// Returns ErrNotFound if no model has been saved.
func (s *Store) LoadModel() (*topic.Model, ModelInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		k     int
		alpha float64
		beta  float64
		seed  int64
		info  ModelInfo
	)
	err := s.db.QueryRow(`
		SELECT topics, alpha, beta, seed, embed_dim, embed_model, saved_at
		FROM model WHERE id = 1
	`).Scan(&k, &alpha, &beta, &seed, &info.EmbedDim, &info.EmbedModel, &info.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ModelInfo{}, ErrNotFound
	}
	if err != nil {
		return nil, ModelInfo{}, err
	}

	words, err := s.loadVocab()
	if err != nil {
		return nil, ModelInfo{}, err
	}

	phi, err := s.loadWordTopic(k, len(words))
	if err != nil {
		return nil, ModelInfo{}, err
	}

	m, err := topic.Restore(k, alpha, beta, seed, words, phi)
	if err != nil {
		return nil, ModelInfo{}, fmt.Errorf("restore model: %w", err)
	}
	return m, info, nil
}

// loadVocab returns the vocabulary in index order.
// Caller must hold s.mu (read lock is sufficient).
func (s *Store) loadVocab() ([]string, error) {
	rows, err := s.db.Query("SELECT idx, word FROM vocab ORDER BY idx")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var idx int
		var word string
		if err := rows.Scan(&idx, &word); err != nil {
			return nil, err
		}
		if idx != len(words) {
			return nil, fmt.Errorf("vocabulary index gap at %d", idx)
		}
		words = append(words, word)
	}
	return words, rows.Err()
}

// loadWordTopic reconstructs the word-topic probability matrix.
// Caller must hold s.mu (read lock is sufficient).
func (s *Store) loadWordTopic(k, vocabSize int) ([][]float64, error) {
	phi := make([][]float64, k)
	for i := range phi {
		phi[i] = make([]float64, vocabSize)
	}

	rows, err := s.db.Query("SELECT topic, word_idx, prob FROM word_topic")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var topicIdx, wordIdx int
		var prob float64
		if err := rows.Scan(&topicIdx, &wordIdx, &prob); err != nil {
			return nil, err
		}
		if topicIdx < 0 || topicIdx >= k || wordIdx < 0 || wordIdx >= vocabSize {
			return nil, fmt.Errorf("word_topic entry out of range: topic %d word %d", topicIdx, wordIdx)
		}
		phi[topicIdx][wordIdx] = prob
	}
	return phi, rows.Err()
}

// SaveParams persists the divergence weights and decision coefficients.
// Replaces any previous set.
func (s *Store) SaveParams(w diverge.Weights, c decide.Coefficients) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	weightsJSON, err := json.Marshal(w)
	if err != nil {
		return err
	}
	coefJSON, err := json.Marshal(c)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO params (id, weights, coefficients, saved_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			weights = excluded.weights,
			coefficients = excluded.coefficients,
			saved_at = excluded.saved_at
	`, string(weightsJSON), string(coefJSON), time.Now())
	return err
}

// LoadParams restores the saved divergence weights and decision coefficients.
// Returns ErrNotFound if none have been saved.
func (s *Store) LoadParams() (diverge.Weights, decide.Coefficients, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var weightsJSON, coefJSON string
	err := s.db.QueryRow("SELECT weights, coefficients FROM params WHERE id = 1").
		Scan(&weightsJSON, &coefJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return diverge.Weights{}, decide.Coefficients{}, ErrNotFound
	}
	if err != nil {
		return diverge.Weights{}, decide.Coefficients{}, err
	}

	var w diverge.Weights
	if err := json.Unmarshal([]byte(weightsJSON), &w); err != nil {
		return diverge.Weights{}, decide.Coefficients{}, fmt.Errorf("decode weights: %w", err)
	}
	var c decide.Coefficients
	if err := json.Unmarshal([]byte(coefJSON), &c); err != nil {
		return diverge.Weights{}, decide.Coefficients{}, fmt.Errorf("decode coefficients: %w", err)
	}
	return w, c, nil
}

// SaveVerdict appends one verdict to the history.
func (s *Store) SaveVerdict(v VerdictRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := v.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO verdicts (
			article_id, url, headline, label, probability,
			topic_divergence, embedding_distance, combined, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, v.ArticleID, v.URL, v.Headline, string(v.Label), v.Probability,
		v.TopicDivergence, v.EmbeddingDistance, v.Combined, createdAt)
	return err
}

// RecentVerdicts returns up to limit verdicts, newest first.
func (s *Store) RecentVerdicts(limit int) ([]VerdictRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, article_id, url, headline, label, probability,
			topic_divergence, embedding_distance, combined, created_at
		FROM verdicts
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []VerdictRecord
	for rows.Next() {
		var v VerdictRecord
		var label string
		err := rows.Scan(
			&v.ID,
			&v.ArticleID,
			&v.URL,
			&v.Headline,
			&label,
			&v.Probability,
			&v.TopicDivergence,
			&v.EmbeddingDistance,
			&v.Combined,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		v.Label = decide.Label(label)
		records = append(records, v)
	}
	return records, rows.Err()
}

// Stats summarizes the verdict history.
func (s *Store) Stats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	var mean sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN label = ? THEN 1 ELSE 0 END), 0),
			AVG(probability)
		FROM verdicts
	`, string(decide.LabelClickbait)).Scan(&st.Total, &st.Clickbait, &mean)
	if err != nil {
		return Stats{}, err
	}
	st.MeanProbability = mean.Float64
	return st, nil
}
