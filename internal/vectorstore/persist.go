package vectorstore

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/pratszszszzz/Courtify/internal/domain"
)

const (
	vectorsFile = "vectors.bin"
	chunksFile  = "chunks.db"
	indexMagic  = "CVI1"
)

// ModelPersister is implemented by embedders whose model must travel with
// the index (the local TF-IDF vocabulary). Remote embedders, identified
// by a fixed model name, do not implement it.
type ModelPersister interface {
	Save(dir string) error
	Restore(dir string) error
}

// Save persists the index into dir atomically: everything is written to a
// temporary sibling directory which then replaces dir in one rename, so a
// failed write never clobbers a previous index.
func Save(dir string, ix *Index, emb domain.Embedder) error {
	tmp := dir + ".tmp"
	if err := os.RemoveAll(tmp); err != nil {
		return err
	}
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return err
	}

	var eg errgroup.Group
	eg.Go(func() error { return writeVectors(filepath.Join(tmp, vectorsFile), ix) })
	eg.Go(func() error { return writeChunks(filepath.Join(tmp, chunksFile), ix) })
	if err := eg.Wait(); err != nil {
		_ = os.RemoveAll(tmp)
		return err
	}
	if mp, ok := emb.(ModelPersister); ok {
		if err := mp.Save(tmp); err != nil {
			_ = os.RemoveAll(tmp)
			return err
		}
	}

	old := dir + ".old"
	_ = os.RemoveAll(old)
	if _, err := os.Stat(dir); err == nil {
		if err := os.Rename(dir, old); err != nil {
			return err
		}
	}
	if err := os.Rename(tmp, dir); err != nil {
		return err
	}
	_ = os.RemoveAll(old)
	return nil
}

// Open loads a persisted index without re-embedding anything. It fails
// with domain.ErrIndexCorrupt when the vector file is inconsistent or a
// vector has no chunk metadata, and with ErrModelMismatch when the index
// was built by a different embedding model than the active one.
func Open(dir string, emb domain.Embedder) (*Index, error) {
	if mp, ok := emb.(ModelPersister); ok {
		if err := mp.Restore(dir); err != nil {
			return nil, fmt.Errorf("%w: embedded model: %v", domain.ErrIndexCorrupt, err)
		}
	}
	model, dim, rows, err := readVectors(filepath.Join(dir, vectorsFile))
	if err != nil {
		return nil, err
	}
	if model != emb.Model() {
		return nil, fmt.Errorf("%w: index built with %q, active embedder is %q", ErrModelMismatch, model, emb.Model())
	}
	chunks, err := readChunks(filepath.Join(dir, chunksFile))
	if err != nil {
		return nil, err
	}
	ix := newIndex(model, dim)
	for _, row := range rows {
		chunk, ok := chunks[row.id]
		if !ok {
			return nil, fmt.Errorf("%w: no chunk metadata for id %d", domain.ErrIndexCorrupt, row.id)
		}
		if err := ix.add(chunk, row.vec); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// ErrModelMismatch reports an index built with a different embedding
// model; the caller must force a rebuild rather than mix models.
var ErrModelMismatch = errors.New("embedding model mismatch")

// Exists reports whether dir holds a persisted index.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, vectorsFile))
	return err == nil
}

type vectorRow struct {
	id  int
	vec []float32
}

func writeVectors(path string, ix *Index) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write([]byte(indexMagic)); err != nil {
		return err
	}
	model := []byte(ix.model)
	if err := binary.Write(f, binary.LittleEndian, uint16(len(model))); err != nil {
		return err
	}
	if _, err := f.Write(model); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(ix.dim)); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(ix.ids))); err != nil {
		return err
	}
	for i, id := range ix.ids {
		if err := binary.Write(f, binary.LittleEndian, uint32(id)); err != nil {
			return err
		}
		if err := binary.Write(f, binary.LittleEndian, ix.vectors[i]); err != nil {
			return err
		}
	}
	return f.Sync()
}

func readVectors(path string) (model string, dim int, rows []vectorRow, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	defer f.Close()

	corrupt := func(what string, cause error) error {
		if cause != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrIndexCorrupt, what, cause)
		}
		return fmt.Errorf("%w: %s", domain.ErrIndexCorrupt, what)
	}

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil || string(magic) != indexMagic {
		return "", 0, nil, corrupt("bad magic", err)
	}
	var modelLen uint16
	if err := binary.Read(f, binary.LittleEndian, &modelLen); err != nil {
		return "", 0, nil, corrupt("model length", err)
	}
	modelBytes := make([]byte, modelLen)
	if _, err := io.ReadFull(f, modelBytes); err != nil {
		return "", 0, nil, corrupt("model id", err)
	}
	var dim32, count uint32
	if err := binary.Read(f, binary.LittleEndian, &dim32); err != nil {
		return "", 0, nil, corrupt("dimension", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
		return "", 0, nil, corrupt("count", err)
	}
	if dim32 == 0 {
		return "", 0, nil, corrupt("zero dimension", nil)
	}
	// check the header against the actual file size before trusting
	// count for allocation
	info, err := f.Stat()
	if err != nil {
		return "", 0, nil, corrupt("stat", err)
	}
	headerLen := int64(len(indexMagic)) + 2 + int64(modelLen) + 4 + 4
	if want := headerLen + int64(count)*(4+int64(dim32)*4); info.Size() != want {
		return "", 0, nil, corrupt("file size does not match header", nil)
	}
	rows = make([]vectorRow, 0, count)
	for i := uint32(0); i < count; i++ {
		var id uint32
		if err := binary.Read(f, binary.LittleEndian, &id); err != nil {
			return "", 0, nil, corrupt("vector id", err)
		}
		vec := make([]float32, dim32)
		if err := binary.Read(f, binary.LittleEndian, vec); err != nil {
			return "", 0, nil, corrupt("vector data", err)
		}
		rows = append(rows, vectorRow{id: int(id), vec: vec})
	}
	return string(modelBytes), int(dim32), rows, nil
}

func writeChunks(path string, ix *Index) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	const schema = `CREATE TABLE chunks (
		id INTEGER PRIMARY KEY,
		source_id TEXT NOT NULL,
		label TEXT NOT NULL,
		start_offset INTEGER NOT NULL,
		end_offset INTEGER NOT NULL,
		text TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO chunks (id, source_id, label, start_offset, end_offset, text) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, id := range ix.ids {
		c := ix.chunks[id]
		if _, err := stmt.Exec(c.ID, c.SourceID, c.Label, c.Start, c.End, c.Text); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func readChunks(path string) (map[int]domain.Chunk, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: chunk store missing", domain.ErrIndexCorrupt)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT id, source_id, label, start_offset, end_offset, text FROM chunks`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	defer rows.Close()

	chunks := make(map[int]domain.Chunk)
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.SourceID, &c.Label, &c.Start, &c.End, &c.Text); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
		}
		chunks[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	return chunks, nil
}
