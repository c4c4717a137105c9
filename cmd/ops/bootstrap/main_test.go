package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"--env=staging", "--profile=ops", "--export-env"}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if opts.env != "staging" || opts.profile != "ops" || !opts.exportEnv || opts.region != "us-east-1" || opts.exportEnvPath != ".env" {
		t.Errorf("unexpected options: %+v", opts)
	}

	if _, err := parseFlags(nil, io.Discard); err == nil {
		t.Error("missing --env should fail")
	}
	if _, err := parseFlags([]string{"--env=qa"}, io.Discard); err == nil {
		t.Error("unknown environment should fail")
	}
}

type fakeIdentity struct {
	out *sts.GetCallerIdentityOutput
	err error
}

func (f fakeIdentity) GetCallerIdentity(context.Context, *sts.GetCallerIdentityInput, ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return f.out, f.err
}

func TestVerifyIdentity(t *testing.T) {
	bctx := &BootstrapContext{AWSRegion: "us-east-1", Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	client := fakeIdentity{out: &sts.GetCallerIdentityOutput{
		Account: aws.String("123456789012"),
		Arn:     aws.String("arn:aws:iam::123456789012:user/ops"),
	}}

	if err := verifyIdentity(context.Background(), client, bctx); err != nil {
		t.Fatalf("verifyIdentity: %v", err)
	}
	if bctx.AccountID != "123456789012" || !strings.HasSuffix(bctx.CallerARN, "user/ops") {
		t.Errorf("identity not recorded: %+v", bctx)
	}

	err := verifyIdentity(context.Background(), fakeIdentity{err: errors.New("ExpiredToken")}, bctx)
	if err == nil || !strings.Contains(err.Error(), "ExpiredToken") {
		t.Fatalf("expected wrapped STS error, got %v", err)
	}
}

func TestConfirmProduction(t *testing.T) {
	bctx := &BootstrapContext{AccountID: "123456789012", AWSRegion: "us-east-1"}
	lines := func(s ...string) func() (string, error) {
		return func() (string, error) {
			if len(s) == 0 {
				return "", io.EOF
			}
			line := s[0]
			s = s[1:]
			return line, nil
		}
	}

	out := &bytes.Buffer{}
	if !confirmProduction(bctx, lines(" YES "), out) {
		t.Error("yes should confirm")
	}
	if !strings.Contains(out.String(), "PRODUCTION") {
		t.Error("warning banner missing")
	}
	if confirmProduction(bctx, lines("y"), io.Discard) {
		t.Error("y alone must not confirm")
	}
	if confirmProduction(bctx, lines(), io.Discard) {
		t.Error("EOF must not confirm")
	}
}

func TestPrintBanner(t *testing.T) {
	out := &bytes.Buffer{}
	printBanner(&BootstrapContext{Environment: "dev", AccountID: "1", AWSProfile: "ops"}, out)
	for _, want := range []string{"Environment:  dev", "Profile:      ops", "/dev/weatherlookup/"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("banner missing %q", want)
		}
	}
}
