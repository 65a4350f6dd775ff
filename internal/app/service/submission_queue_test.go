package service

import (
	"errors"
	"testing"
	"tle_zone_studio/internal/common"
)

func TestSubmissionResultChannel(t *testing.T) {
	if got := SubmissionResultChannel("q", "job-1"); got != "q:result:job-1" {
		t.Errorf("channel = %q", got)
	}
}

func TestDecodeSubmissionResult(t *testing.T) {
	p, err := decodeSubmissionResult(`{"job_id":"j","problem":{"serial":7,"name":"Two Sum"}}`)
	if err != nil || p.Serial != 7 {
		t.Fatalf("got %+v, %v", p, err)
	}

	_, err = decodeSubmissionResult(`{"job_id":"j","error":"problem with this name already exists: resource conflict"}`)
	if err == nil || err.Error() != "problem with this name already exists: resource conflict" {
		t.Fatalf("err = %v", err)
	}

	_, err = decodeSubmissionResult(`{"job_id":"j"}`)
	if !errors.Is(err, common.ErrInternalServer) {
		t.Fatalf("err = %v, want ErrInternalServer", err)
	}

	if _, err := decodeSubmissionResult(`not json`); err == nil {
		t.Fatal("expected decode error")
	}
}
