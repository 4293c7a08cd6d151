// Package compiler turns the JSON rule-set into the binary .srs form by
// shelling out to an external rule-set compiler.
package compiler

import "context"

// Compiler compiles a source rule-set file into a binary rule-set file.
//
//go:generate mockgen -package mockcompiler -source=interface.go -destination=mock/mockcompiler.go *
type Compiler interface {
	// Compile reads textPath and writes binaryPath. A failing compiler is
	// reported as an error; the caller validates the produced file.
	Compile(ctx context.Context, textPath, binaryPath string) error
	// Version reports the compiler's version string.
	Version(ctx context.Context) (string, error)
}
