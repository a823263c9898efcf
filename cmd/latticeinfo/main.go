// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command latticeinfo is a boundary CLI (spec §6.6: "external binaries...
// not part of this spec"), kept to a minimal inspection tool: print a
// file's footer summary, and optionally run a scan described by a YAML
// options file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/latticedb/lattice"
	"github.com/latticedb/lattice/scan"
	"github.com/latticedb/lattice/segment"
)

var (
	dashScan    string
	dashCompact bool
)

func init() {
	flag.StringVar(&dashScan, "scan", "", "path to a YAML scan-options file (row_lo, row_hi fields)")
	flag.BoolVar(&dashCompact, "q", false, "only print the row count")
}

// scanOptions mirrors the subset of scan.Options expressible from a file,
// per spec §6.3's row_range parameter.
type scanOptions struct {
	RowLo int `json:"row_lo"`
	RowHi int `json:"row_hi"`
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: latticeinfo [-scan file.yaml] [-q] <path>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(flag.Arg(0)); err != nil {
		log.Fatal(err)
	}
}

func run(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	src := &segment.ReaderAtSource{R: f, Size_: uint64(info.Size())}

	ctx := context.Background()
	file, err := lattice.Open(ctx, src, nil)
	if err != nil {
		return err
	}

	if dashCompact {
		fmt.Println(file.RowCount())
		return nil
	}

	fmt.Printf("file id:          %s\n", file.FileID())
	fmt.Printf("dtype:            %s\n", file.DType())
	fmt.Printf("row count:        %d\n", file.RowCount())
	fmt.Printf("encoding context: %v\n", file.EncodingContext())
	splits := file.Splits()
	fmt.Printf("row splits:       %d\n", len(splits))

	if dashScan == "" {
		return nil
	}
	optsBytes, err := os.ReadFile(dashScan)
	if err != nil {
		return fmt.Errorf("reading scan options: %w", err)
	}
	var opts scanOptions
	if err := yaml.Unmarshal(optsBytes, &opts); err != nil {
		return fmt.Errorf("parsing scan options: %w", err)
	}
	rowRange := &scan.Range{Lo: opts.RowLo, Hi: opts.RowHi}
	if rowRange.Lo == 0 && rowRange.Hi == 0 {
		rowRange = nil
	}
	stream, err := file.Scan(ctx, nil, nil, rowRange, nil, nil)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	var rows int
	for {
		out, ok, err := stream.Next(ctx)
		if err != nil {
			return fmt.Errorf("scan next: %w", err)
		}
		if !ok {
			break
		}
		rows += out.Len()
	}
	fmt.Printf("scanned rows:     %d\n", rows)
	return nil
}
