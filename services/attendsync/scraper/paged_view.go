package scraper

import (
	"context"

	"attendsync-backend/lib/automation"
)

const tableRowSelector = "table > tbody > tr:first-child"

// pagedView binds the live paginated course table to the collector's
// PagedView contract. Next and Prev activate the portal's pagination
// buttons; a missing or stale control surfaces as an error, which the
// collector reads as a traversal boundary.
type pagedView struct {
	browser automation.Browser
	opts    Options
}

func (v pagedView) WaitForTable(ctx context.Context) error {
	wctx, cancel := context.WithTimeout(ctx, v.opts.TableTimeout)
	defer cancel()
	return v.browser.WaitForSelector(wctx, tableRowSelector)
}

func (v pagedView) PageHTML(ctx context.Context) (string, error) {
	actx, cancel := context.WithTimeout(ctx, v.opts.ActionTimeout)
	defer cancel()
	return v.browser.HTML(actx)
}

func (v pagedView) Next(ctx context.Context) (bool, error) {
	return v.activate(ctx, "Next")
}

func (v pagedView) Prev(ctx context.Context) (bool, error) {
	return v.activate(ctx, "Previous")
}

func (v pagedView) activate(ctx context.Context, name string) (bool, error) {
	actx, cancel := context.WithTimeout(ctx, v.opts.ActionTimeout)
	defer cancel()

	control := v.browser.Locate(buttonNamed(name))
	enabled, err := control.Enabled(actx)
	if err != nil {
		return false, err
	}
	if !enabled {
		return false, nil
	}
	err = control.Click(actx)
	if err != nil {
		return false, err
	}

	sctx, cancel := context.WithTimeout(ctx, v.opts.SettleTimeout)
	defer cancel()
	err = v.browser.WaitForQuiescence(sctx)
	if err != nil {
		return false, err
	}
	return true, nil
}
