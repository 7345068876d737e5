// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/524D/mslab/internal/fsires"
	"github.com/524D/mslab/internal/labfile"
	"github.com/524D/mslab/internal/mpa"
	"github.com/524D/mslab/internal/workbook"
)

const (
	fsiresExt = `.fsires`
	mpaExt    = `.mpa`
	xlsxExt   = `.xlsx`

	byFileSuffix  = `_data_sorted_by_file.xlsx`
	byBatchSuffix = `_data_sorted_by_batch.xlsx`
)

// saveWorkbook creates a workbook, fills it with write and saves it to path
func saveWorkbook(path string, write func(*workbook.Workbook) error) error {
	wb := workbook.New()
	defer wb.Close()
	if err := write(wb); err != nil {
		return err
	}
	return wb.SaveAs(path)
}

// folderName returns the name of the data directory itself
func folderName(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return filepath.Base(dir)
}

// runFsires converts all result files of the data directory into a
// workbook with one sheet per file and a workbook with one sheet per sample
func runFsires(par convertParams) error {
	t := time.Now()
	names, err := labfile.List(par.dir, fsiresExt)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		log.Warn().Str("dir", par.dir).Msgf("No %s files found", fsiresExt)
		return nil
	}
	fsires.SortFiles(names)

	recs := make([]fsires.Record, 0, len(names))
	for _, name := range names {
		rec, err := readFile(filepath.Join(par.dir, name), par.encoding,
			func(r io.Reader) (fsires.Record, error) {
				return fsires.Read(r, name)
			})
		if err != nil {
			return err
		}
		log.Debug().
			Str("file", name).
			Str("sample", rec.SampleID).
			Int("specs", len(rec.Specs)).
			Int("results", len(rec.Results)).
			Int("data", len(rec.Data)).
			Msg("Read result file")
		recs = append(recs, rec)
	}

	folder := folderName(par.dir)
	byFile := outPath(par.commonParams, folder+byFileSuffix)
	err = saveWorkbook(byFile, func(wb *workbook.Workbook) error {
		return fsires.WriteByFile(wb, recs)
	})
	if err != nil {
		return err
	}
	byBatch := outPath(par.commonParams, folder+byBatchSuffix)
	var sheets int
	err = saveWorkbook(byBatch, func(wb *workbook.Workbook) error {
		if err := fsires.WriteByBatch(wb, recs); err != nil {
			return err
		}
		sheets = len(wb.Sheets())
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().
		Int("files", len(recs)).
		Int("samples", sheets).
		Str("by_file", byFile).
		Str("by_batch", byBatch).
		Dur("took", time.Since(t)).
		Msg("Result files converted")
	return nil
}

// runMpa converts every .mpa file of the data directory into a workbook
// with the same base name
func runMpa(par convertParams) error {
	t := time.Now()
	names, err := labfile.List(par.dir, mpaExt)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		log.Warn().Str("dir", par.dir).Msgf("No %s files found", mpaExt)
		return nil
	}
	opt := mpa.Options{NameOffset: par.nameOffset}
	for _, name := range names {
		blocks, err := readFile(filepath.Join(par.dir, name), par.encoding,
			func(r io.Reader) ([]mpa.Block, error) {
				return mpa.Read(r, name, opt)
			})
		if err != nil {
			return err
		}
		out := outPath(par.commonParams, labfile.Stem(name)+xlsxExt)
		err = saveWorkbook(out, func(wb *workbook.Workbook) error {
			return mpa.WriteBlocks(wb, blocks)
		})
		if err != nil {
			return err
		}
		log.Info().Str("file", name).Int("blocks", len(blocks)).Str("out", out).Msg("Converted")
	}
	log.Debug().Int("files", len(names)).Dur("took", time.Since(t)).Msg("All files converted")
	return nil
}
