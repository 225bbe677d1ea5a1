// Package repo is the persistence layer over SQLite.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"inkwell/internal/domain"
	"inkwell/internal/events"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// MaxHistoryPageSize caps list pages regardless of the requested limit.
const MaxHistoryPageSize = 50

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxHistoryPageSize {
		return MaxHistoryPageSize
	}
	return limit
}

// InsertGeneration appends one generation record and its audit event in
// a single transaction. Records are never merged or updated.
func (r Repo) InsertGeneration(ctx context.Context, g domain.Generation) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO generations(id,user_id,input_content,output_content,type,tone,created_at) VALUES (?,?,?,?,?,?,?)`,
		g.ID, g.UserID, g.InputContent, g.OutputContent, g.Type, g.Tone, g.CreatedAt); err != nil {
		return err
	}
	w := events.Writer{DB: r.DB}
	if err := w.Append(ctx, tx, "generation.created", "generation", g.ID, g.UserID, events.EventPayload{"type": g.Type}); err != nil {
		return err
	}
	return tx.Commit()
}

// ListGenerations returns the owner's records newest first. Re-querying
// with the same offset reproduces the same page barring concurrent
// writes.
func (r Repo) ListGenerations(ctx context.Context, userID string, limit, offset int) ([]domain.Generation, error) {
	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,user_id,input_content,output_content,type,tone,created_at FROM generations
WHERE user_id=? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		userID, clampLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Generation
	for rows.Next() {
		var g domain.Generation
		if err := rows.Scan(&g.ID, &g.UserID, &g.InputContent, &g.OutputContent, &g.Type, &g.Tone, &g.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, g)
	}
	return res, rows.Err()
}

// DeleteGeneration removes a record owned by userID. Ownership is part
// of the WHERE clause, so a record owned by someone else reports
// ErrNotFound rather than revealing that it exists.
func (r Repo) DeleteGeneration(ctx context.Context, userID, recordID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	res, err := tx.ExecContext(ctx, `DELETE FROM generations WHERE id=? AND user_id=?`, recordID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	w := events.Writer{DB: r.DB}
	if err := w.Append(ctx, tx, "generation.deleted", "generation", recordID, userID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// InsertImage appends one image record and its audit event.
func (r Repo) InsertImage(ctx context.Context, img domain.Image) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO images(id,user_id,prompt,image_url,created_at) VALUES (?,?,?,?,?)`,
		img.ID, img.UserID, img.Prompt, img.ImageURL, img.CreatedAt); err != nil {
		return err
	}
	w := events.Writer{DB: r.DB}
	if err := w.Append(ctx, tx, "image.created", "image", img.ID, img.UserID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// ListImages returns the owner's image records newest first.
func (r Repo) ListImages(ctx context.Context, userID string, limit, offset int) ([]domain.Image, error) {
	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,user_id,prompt,image_url,created_at FROM images
WHERE user_id=? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		userID, clampLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Image
	for rows.Next() {
		var img domain.Image
		if err := rows.Scan(&img.ID, &img.UserID, &img.Prompt, &img.ImageURL, &img.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, img)
	}
	return res, rows.Err()
}

// LatestEvents returns recent audit events, optionally filtered.
func (r Repo) LatestEvents(ctx context.Context, n int, evtType, userID string) ([]domain.Event, error) {
	query := `SELECT id,ts,type,entity_kind,COALESCE(entity_id,''),user_id,payload_json FROM events`
	var (
		clauses []string
		args    []any
	)
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	if userID != "" {
		clauses = append(clauses, "user_id=?")
		args = append(args, userID)
	}
	for i, c := range clauses {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	if n <= 0 {
		n = 20
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, n)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &e.EntityID, &e.UserID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
