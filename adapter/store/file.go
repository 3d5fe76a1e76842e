package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pandaqa/pandaqa"
	"github.com/pandaqa/pandaqa/pkg/authz"
)

func (a *Adapter) SaveFiles(ctx context.Context, files ...*pandaqa.File) error {
	if len(files) < 1 {
		return nil
	}

	if err := a.inTxDo(ctx, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		if err := execQueryCheckRowsAffected(ctx, tx, insertFilesQuery{files: files}); err != nil {
			return fmt.Errorf("exec insert files query failed: %w", err)
		}

		if err := execQueryCheckRowsAffected(ctx, tx, insertFileStatusEventsQuery{files: files}); err != nil {
			return fmt.Errorf("exec insert file status events query failed: %w", err)
		}

		return nil
	}); err != nil {
		return err
	}

	return nil
}

type insertFilesQuery struct {
	files []*pandaqa.File
}

func (q insertFilesQuery) SQL() (string, []any) {
	if len(q.files) == 0 {
		return "", nil
	}

	query := `
		with cte as (
			values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, (select "id" from "file_status" fs where fs."name" = ?), ?, ?)
	`
	args := make([]any, 0, len(q.files)*14)
	args = append(args, fileArgs(q.files[0])...)
	for i := range q.files[1:] {
		query += `, (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, (select "id" from "file_status" fs where fs."name" = ?), ?, ?)`
		args = append(args, fileArgs(q.files[i+1])...)
	}
	query += `
		)
		insert into "file" (
			"id",
			"author",
			"file_name",
			"content_type",
			"extension",
			"file_size",
			"file_hash",
			"role",
			"embedder",
			"retriever",
			"location",
			"status",
			"created",
			"updated"
		)
		select *
		from cte
		where 1
		on conflict("id") do update set
			"author"=excluded."author",
			"file_name"=excluded."file_name",
			"content_type"=excluded."content_type",
			"extension"=excluded."extension",
			"file_size"=excluded."file_size",
			"file_hash"=excluded."file_hash",
			"role"=excluded."role",
			"embedder"=excluded."embedder",
			"retriever"=excluded."retriever",
			"location"=excluded."location",
			"status"=excluded."status",
			"updated"=excluded."updated"
	`

	return query, args
}

func fileArgs(aFile *pandaqa.File) []any {
	return []any{
		aFile.ID,
		aFile.AuthorID,
		aFile.FileName,
		aFile.ContentType,
		aFile.Extension,
		aFile.Size,
		aFile.Hash,
		string(aFile.Role),
		aFile.Embedder,
		aFile.Retriever,
		aFile.Location,
		aFile.Status,
		aFile.Created,
		aFile.Updated,
	}
}

type insertFileStatusEventsQuery struct {
	files []*pandaqa.File
}

func (q insertFileStatusEventsQuery) SQL() (string, []any) {
	if len(q.files) == 0 {
		return "", nil
	}

	query := `
		with cte as (
			values (?, (select "id" from "file_status" fs where fs."name" = ?), ?, ?)
	`
	args := make([]any, 0, len(q.files)*4)
	args = append(args, eventArgs(q.files[0])...)
	for i := range q.files[1:] {
		query += `, (?, (select "id" from "file_status" fs where fs."name" = ?), ?, ?)`
		args = append(args, eventArgs(q.files[i+1])...)
	}
	query += `
		)
		insert into "file_status_evt" (
			"file",
			"status",
			"message",
			"created"
		)
		select *
		from cte
		where 1
	`

	return query, args
}

func eventArgs(aFile *pandaqa.File) []any {
	return []any{
		aFile.ID,
		aFile.Status,
		sql.NullString{String: aFile.StatusMessage, Valid: aFile.StatusMessage != ""},
		aFile.Updated,
	}
}

func (a *Adapter) ListFiles(ctx context.Context, filter pandaqa.FileFilter, partial authz.Partial, params pandaqa.SortParams) ([]*pandaqa.File, error) {
	var files []*pandaqa.File

	if err := a.inTxDo(ctx, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		sql, args := selectFilesQuery{
			filter:  filter,
			partial: partial,
		}.SQL()

		if params.Empty() {
			params = pandaqa.SortParams{By: `f."created"`, Order: pandaqa.SortOrderDesc}
		}
		sql += params.SQL()

		rows, err := tx.QueryContext(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("select files query failed: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			aFile, err := scanFile(rows)
			if err != nil {
				return fmt.Errorf("scan file failed: %w", err)
			}
			files = append(files, aFile)
		}

		return rows.Err()
	}); err != nil {
		return nil, err
	}

	return files, nil
}

const selectFileColumns = `
		select
			f."id",
			f."author",
			f."file_name",
			f."content_type",
			f."extension",
			f."file_size",
			f."file_hash",
			f."role",
			f."embedder",
			f."retriever",
			f."location",
			fs."name" as "status",
			fse."message" as "status_message",
			f."created",
			f."updated"
		from "file" f
		inner join "file_status" fs on f."status" = fs."id"
		inner join "file_status_evt" fse on fse."id" = (
			select max(e."id") from "file_status_evt" e where e."file" = f."id"
		)
`

type selectFilesQuery struct {
	filter  pandaqa.FileFilter
	partial authz.Partial
}

func (q selectFilesQuery) SQL() (string, []any) {
	query := selectFileColumns
	args := []any{}

	// Add where clauses from the filter and/or partial if any
	where, whereArgs := fileFilterClauses(q.filter)
	partialClauses, partialArgs := q.partial.SQL()
	if partialClauses != "" {
		if where == "" {
			where += partialClauses
		} else {
			where += " and " + partialClauses
		}

		whereArgs = append(whereArgs, partialArgs...)
	}
	if where != "" {
		query += " where " + where
		args = append(args, whereArgs...)
	}

	return query, args
}

func fileFilterClauses(filter pandaqa.FileFilter) (string, []any) {
	var (
		clauses = []string{}
		args    = []any{}
	)

	if filter.Embedder != "" {
		clauses = append(clauses, `f."embedder" = ?`)
		args = append(args, filter.Embedder)
	}

	if filter.Retriever != "" {
		clauses = append(clauses, `f."retriever" = ?`)
		args = append(args, filter.Retriever)
	}

	if filter.Status != "" {
		clauses = append(clauses, `fs."name" = ?`)
		args = append(args, filter.Status)
	}

	if !filter.LastUpdatedBefore.IsZero() {
		clauses = append(clauses, `f."updated" < ?`)
		args = append(args, filter.LastUpdatedBefore)
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return strings.Join(clauses, " AND "), args
}

func (a *Adapter) FindFile(ctx context.Context, id pandaqa.FileID, partial authz.Partial) (*pandaqa.File, error) {
	var file *pandaqa.File
	if err := a.inTxDo(ctx, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		query, args := findFileQuery{
			id:      id,
			partial: partial,
		}.SQL()

		stmt, err := tx.Prepare(query)
		if err != nil {
			return fmt.Errorf("prepare find file statement failed: %w", err)
		}
		defer stmt.Close()

		row := stmt.QueryRowContext(ctx, args...)
		file, err = scanFile(row)
		if err != nil {
			return err
		}

		return nil
	}); err != nil {
		return nil, err
	}

	return file, nil
}

type findFileQuery struct {
	id      pandaqa.FileID
	partial authz.Partial
}

func (q findFileQuery) SQL() (string, []any) {
	query := selectFileColumns + ` where f."id" = ?`
	args := []any{q.id}

	// Add where clauses from the partial if any
	partialClauses, partialArgs := q.partial.SQL()
	if partialClauses != "" {
		query += " and " + partialClauses

		args = append(args, partialArgs...)
	}

	return query, args
}

func scanFile(row Scannable) (*pandaqa.File, error) {
	var (
		aFile         = new(pandaqa.File)
		role          string
		statusMessage = sql.NullString{}
	)

	if err := row.Scan(
		&aFile.ID,
		&aFile.AuthorID,
		&aFile.FileName,
		&aFile.ContentType,
		&aFile.Extension,
		&aFile.Size,
		&aFile.Hash,
		&role,
		&aFile.Embedder,
		&aFile.Retriever,
		&aFile.Location,
		&aFile.Status,
		&statusMessage,
		&aFile.Created,
		&aFile.Updated,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pandaqa.ErrNotFound
		}
		return nil, fmt.Errorf("scan file failed: %w", err)
	}

	aFile.Role = pandaqa.Role(role)
	if statusMessage.Valid {
		aFile.StatusMessage = statusMessage.String
	}

	return aFile, nil
}

func (a *Adapter) DeleteFiles(ctx context.Context, files ...*pandaqa.File) error {
	if len(files) < 1 {
		return nil
	}

	if err := a.inTxDo(ctx, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		if err := execQuery(ctx, tx, deleteFileStatusEventsQuery{files: files}); err != nil {
			return fmt.Errorf("exec delete file status events query failed: %w", err)
		}

		if err := execQuery(ctx, tx, deleteFilesQuery{files: files}); err != nil {
			return fmt.Errorf("exec delete files query failed: %w", err)
		}

		return nil
	}); err != nil {
		return err
	}

	return nil
}

type deleteFileStatusEventsQuery struct {
	files []*pandaqa.File
}

func (q deleteFileStatusEventsQuery) SQL() (string, []any) {
	if len(q.files) == 0 {
		return "", nil
	}

	sql := `delete from "file_status_evt" where "file" in (?`
	args := make([]any, 0, len(q.files))
	args = append(args, q.files[0].ID)
	for i := range q.files[1:] {
		sql += `, ?`
		args = append(args, q.files[i+1].ID)
	}
	sql += `)`

	return sql, args
}

type deleteFilesQuery struct {
	files []*pandaqa.File
}

func (q deleteFilesQuery) SQL() (string, []any) {
	if len(q.files) == 0 {
		return "", nil
	}

	sql := `delete from "file" where "id" in (?`
	args := make([]any, 0, len(q.files))
	args = append(args, q.files[0].ID)
	for i := range q.files[1:] {
		sql += `, ?`
		args = append(args, q.files[i+1].ID)
	}
	sql += `)`

	return sql, args
}
