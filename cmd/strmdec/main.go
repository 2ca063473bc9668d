// Copyright 2024 The strmdec Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command strmdec is a single-shot, buffer-to-buffer decompressor for the
// codecs in this module. It reads a target (a local path or an s3://
// object), optionally slices a [offset, offset+size) window out of it,
// decompresses that window with the codec named by -codec, and writes the
// result to stdout or to the file named by -output.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"cloudeng.io/cmdutil"
	"cloudeng.io/cmdutil/subcmd"
	"cloudeng.io/errors"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cenkalti/backoff/v3"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/file/s3file"
	"github.com/schollz/progressbar/v2"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/artifactdec/strmdec/bzip2"
	"github.com/artifactdec/strmdec/deflate"
	"github.com/artifactdec/strmdec/lzfse"
	"github.com/artifactdec/strmdec/lzvn"
	"github.com/artifactdec/strmdec/misc"
)

type decompressFlags struct {
	Target         string `subcmd:"t,,'input target: a local path or s3://bucket/key'"`
	Offset         int64  `subcmd:"o,0,'byte offset into target to start reading at'"`
	Size           int64  `subcmd:"s,0,'number of compressed bytes to read, 0 for the rest of the target'"`
	DecompressedSize int  `subcmd:"d,0,'declared capacity of the output buffer, required'"`
	Output         string `subcmd:"output,,'output file or s3 path, omit for stdout'"`
	Verbose        bool   `subcmd:"v,false,verbose logging"`
	VeryVerbose    bool   `subcmd:"V,false,very verbose logging, includes per-block detail"`
	Progress       bool   `subcmd:"progress,true,display a progress bar while reading the target"`
}

// codecs maps the -codec name spec.md's Format enum carries to the
// Decompress entry point that implements it.
var codecs = map[string]func([]byte, []byte) (int, error){
	"deflate": deflate.Decompress,
	"zlib":    deflate.DecompressZlib,
	"bzip2":   bzip2.Decompress,
	"lzvn":    lzvn.Decompress,
	"lzfse":   lzfse.Decompress,
	"ascii7":  misc.DecompressASCII7,
	"adc":     misc.DecompressADC,
	"lzxpress": misc.DecompressLZXPRESS,
	"lznt1":   misc.DecompressLZNT1,
	"lzx":     misc.DecompressLZX,
}

type codecFlags struct {
	decompressFlags
	Codec string `subcmd:"codec,,'codec to use: one of deflate, zlib, bzip2, lzvn, lzfse, ascii7, adc, lzxpress, lznt1, lzx'"`
}

var cmdSet *subcmd.CommandSet

func init() {
	decompressCmd := subcmd.NewCommand("decompress",
		subcmd.MustRegisterFlagStruct(&codecFlags{}, nil, nil),
		runDecompress, subcmd.ExactlyNumArguments(0))
	decompressCmd.Document(`decompress a single compressed buffer read from a target (local path or s3:// object) using the named codec.`)

	listCmd := subcmd.NewCommand("list-codecs",
		subcmd.MustRegisterFlagStruct(&noFlags{}, nil, nil),
		listCodecs, subcmd.ExactlyNumArguments(0))
	listCmd.Document(`list the codec names accepted by -codec.`)

	cmdSet = subcmd.NewCommandSet(decompressCmd, listCmd)
	cmdSet.Document(`decompress forensic/OS-artifact compressed streams. Targets may be local or on S3.`)

	file.RegisterImplementation("s3", func() file.Implementation {
		return s3file.NewImplementation(
			s3file.NewDefaultProvider(session.Options{}), s3file.Options{})
	})
}

type noFlags struct{}

func listCodecs(ctx context.Context, values interface{}, args []string) error {
	for name := range codecs {
		fmt.Println(name)
	}
	return nil
}

func main() {
	cmdSet.MustDispatch(context.Background())
}

// readTarget opens target, retrying transient s3file errors with
// exponential backoff, and returns the [offset, offset+size) slice of it
// (size==0 means 'to the end of the target').
func readTarget(ctx context.Context, target string, offset, size int64, showProgress bool) ([]byte, error) {
	var rd file.File
	op := func() error {
		var err error
		rd, err = file.Open(ctx, target)
		return err
	}
	bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, fmt.Errorf("opening %v: %w", target, err)
	}
	defer rd.Close(ctx)

	info, err := file.Stat(ctx, target)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		size = info.Size() - offset
	}

	sr := io.NewSectionReader(rd.Reader(ctx), offset, size)
	var r io.Reader = sr
	if showProgress && size > 0 {
		bar := progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetPredictTime(true))
		bar.RenderBlank()
		r = io.TeeReader(sr, progressBarWriter{bar})
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("reading %v: %w", target, err)
	}
	return buf, nil
}

// progressBarWriter adapts progressbar.ProgressBar's Add64 method to
// io.Writer so it can sit behind an io.TeeReader.
type progressBarWriter struct {
	bar *progressbar.ProgressBar
}

func (w progressBarWriter) Write(p []byte) (int, error) {
	w.bar.Add(len(p))
	return len(p), nil
}

func writeOutput(ctx context.Context, name string, data []byte) error {
	if len(name) == 0 {
		_, err := os.Stdout.Write(data)
		return err
	}
	wr, err := file.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := wr.Writer(ctx).Write(data); err != nil {
		wr.Close(ctx)
		return err
	}
	return wr.Close(ctx)
}

func runDecompress(ctx context.Context, values interface{}, args []string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cmdutil.HandleSignals(cancel, os.Interrupt)

	cl := values.(*codecFlags)
	if len(cl.Target) == 0 {
		return fmt.Errorf("-t target is required")
	}
	decode, ok := codecs[cl.Codec]
	if !ok {
		return fmt.Errorf("unknown -codec %q, see list-codecs", cl.Codec)
	}
	if cl.DecompressedSize <= 0 {
		return fmt.Errorf("-d must declare a positive output capacity")
	}

	// The bar always renders to stderr (see readTarget), so whether to
	// show it at all turns on stderr being a terminal, not stdout's —
	// piping stdout to a file (the common case, since decompressed
	// output usually isn't meant for a terminal) must not suppress it.
	showProgress := cl.Progress && terminal.IsTerminal(int(os.Stderr.Fd()))

	start := time.Now()
	compressed, err := readTarget(ctx, cl.Target, cl.Offset, cl.Size, showProgress)
	if err != nil {
		return err
	}
	if cl.Verbose || cl.VeryVerbose {
		log.Printf("strmdec: read %d compressed bytes from %v in %v", len(compressed), cl.Target, time.Since(start))
	}

	uncompressed := make([]byte, cl.DecompressedSize)
	n, err := decode(compressed, uncompressed)
	if err != nil {
		return fmt.Errorf("decompressing %v as %v: %w", cl.Target, cl.Codec, err)
	}
	if cl.VeryVerbose {
		log.Printf("strmdec: %v produced %d bytes", cl.Codec, n)
	}

	errs := &errors.M{}
	errs.Append(writeOutput(ctx, cl.Output, uncompressed[:n]))
	return errs.Err()
}
