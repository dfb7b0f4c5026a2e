package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fakeProcess struct {
	pid          int32
	name         string
	files        []string
	nameErr      error
	filesErr     error
	terminateErr error
	stubborn     bool

	terminated bool
}

func (p *fakeProcess) Pid() int32 { return p.pid }

func (p *fakeProcess) Name(context.Context) (string, error) { return p.name, p.nameErr }

func (p *fakeProcess) OpenFiles(context.Context) ([]string, error) { return p.files, p.filesErr }

func (p *fakeProcess) Terminate(context.Context) error {
	if p.terminateErr != nil {
		return p.terminateErr
	}
	p.terminated = true
	return nil
}

func (p *fakeProcess) IsRunning(context.Context) (bool, error) {
	return !p.terminated || p.stubborn, nil
}

func listOf(procs ...*fakeProcess) ProcessLister {
	return func(context.Context) ([]Process, error) {
		out := make([]Process, len(procs))
		for i, p := range procs {
			out[i] = p
		}
		return out, nil
	}
}

func TestRelease_TerminatesHolders(t *testing.T) {
	excel := &fakeProcess{pid: 10, name: "EXCEL.EXE", files: []string{`C:\work\test_results.xlsx`}}
	otherFile := &fakeProcess{pid: 11, name: "excel.exe", files: []string{`C:\work\budget.xlsx`}}
	notExcel := &fakeProcess{pid: 12, name: "explorer.exe", files: []string{`C:\work\test_results.xlsx`}}
	denied := &fakeProcess{pid: 13, name: "EXCEL.EXE", filesErr: errors.New("access denied")}
	gone := &fakeProcess{pid: 14, nameErr: errors.New("process not found")}

	r := &LockReleaser{
		List:         listOf(excel, otherFile, notExcel, denied, gone),
		PollInterval: time.Millisecond,
	}
	got, err := r.Release(context.Background(), "test_results.xlsx")
	if err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if diff := cmp.Diff([]int32{10}, got); diff != "" {
		t.Errorf("terminated pids mismatch (-want +got):\n%s", diff)
	}
	if otherFile.terminated || notExcel.terminated {
		t.Error("processes not holding the report were terminated")
	}
}

func TestRelease_CustomHolders(t *testing.T) {
	calc := &fakeProcess{pid: 20, name: "soffice.bin", files: []string{"/home/qa/test_results.xlsx"}}
	r := &LockReleaser{
		Holders:      []string{"soffice"},
		List:         listOf(calc),
		PollInterval: time.Millisecond,
	}
	got, err := r.Release(context.Background(), "/home/qa/test_results.xlsx")
	if err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if len(got) != 1 || got[0] != 20 {
		t.Errorf("Release() = %v, want [20]", got)
	}
}

func TestRelease_SkipsFailures(t *testing.T) {
	refuses := &fakeProcess{pid: 30, name: "EXCEL", files: []string{"test_results.xlsx"}, terminateErr: errors.New("permission denied")}
	stubborn := &fakeProcess{pid: 31, name: "EXCEL", files: []string{"test_results.xlsx"}, stubborn: true}

	r := &LockReleaser{
		List:         listOf(refuses, stubborn),
		WaitTimeout:  20 * time.Millisecond,
		PollInterval: time.Millisecond,
	}
	got, err := r.Release(context.Background(), "test_results.xlsx")
	if err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Release() = %v, want none", got)
	}
}

func TestRelease_ListError(t *testing.T) {
	r := &LockReleaser{List: func(context.Context) ([]Process, error) {
		return nil, errors.New("no procfs")
	}}
	if _, err := r.Release(context.Background(), "test_results.xlsx"); err == nil {
		t.Error("Release() should return the listing error")
	}
}

func TestMatchesHolder(t *testing.T) {
	tests := []struct {
		name    string
		holders []string
		want    bool
	}{
		{"EXCEL.EXE", []string{"EXCEL"}, true},
		{"excel", []string{"EXCEL"}, true},
		{"notepad.exe", []string{"EXCEL"}, false},
		{"EXCEL.EXE", []string{""}, false},
	}
	for _, tt := range tests {
		if got := matchesHolder(tt.name, tt.holders); got != tt.want {
			t.Errorf("matchesHolder(%q, %v) = %v, want %v", tt.name, tt.holders, got, tt.want)
		}
	}
}
