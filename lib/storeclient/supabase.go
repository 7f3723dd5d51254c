package storeclient

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"attendsync-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

// Supabase talks to a Supabase project over PostgREST: DDL goes
// through an `execute_sql` RPC the project must define, inserts go
// through the table endpoints.
type Supabase struct {
	http    *resty.Client
	execRpc string
}

type SupabaseOptions struct {
	Url string `json:"url"`
	Key string `json:"key"`
	// name of the SQL-executing RPC, defaults to "execute_sql"
	ExecRpc string `json:"exec_rpc"`
}

func NewSupabase(opts SupabaseOptions) (*Supabase, error) {
	_, err := url.Parse(opts.Url)
	if err != nil {
		return nil, err
	}
	if opts.Key == "" {
		return nil, fmt.Errorf("a supabase key was not specified")
	}
	execRpc := opts.ExecRpc
	if execRpc == "" {
		execRpc = "execute_sql"
	}

	client := resty.New()
	client.SetBaseURL(opts.Url)
	client.SetHeader("apikey", opts.Key)
	client.SetHeader("Authorization", fmt.Sprintf("Bearer %s", opts.Key))
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "storeclient/supabase")

	return &Supabase{
		http:    client,
		execRpc: execRpc,
	}, nil
}

func (s *Supabase) ExecStatement(ctx context.Context, statement string) error {
	res, err := s.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"sql": statement}).
		Post(fmt.Sprintf("/rest/v1/rpc/%s", s.execRpc))
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("%s: %s", res.Status(), res.String())
	}
	return nil
}

func (s *Supabase) InsertRows(ctx context.Context, table string, columns []string, rows []map[string]*string) error {
	res, err := s.http.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=minimal").
		SetBody(rows).
		Post(fmt.Sprintf("/rest/v1/%s", table))
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("insert into %s: %s: %s", table, res.Status(), res.String())
	}
	return nil
}

func (s *Supabase) SupportsPolicies() bool {
	return true
}
