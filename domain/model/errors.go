package model

import (
	"errors"
	"fmt"
)

var (
	ErrContextLost      = errors.New("graphics context is lost")
	ErrAllocationFailed = errors.New("graphics device refused allocation")
	ErrLedgerClosed     = errors.New("resource ledger is closed")
	ErrInvalidHandle    = errors.New("handle is not tracked by the ledger")
	ErrSurfaceNotFound  = errors.New("render surface not found")
	ErrSurfaceStopped   = errors.New("render surface is stopped")
)

// ShaderCompileError reports a failed compilation together with the
// device compiler diagnostics.
type ShaderCompileError struct {
	Stage ShaderStage
	Log   string
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("%s shader compilation failed: %s", e.Stage, e.Log)
}

// ProgramLinkError reports a failed program link together with the
// device linker diagnostics.
type ProgramLinkError struct {
	Log string
}

func (e *ProgramLinkError) Error() string {
	return fmt.Sprintf("program link failed: %s", e.Log)
}
