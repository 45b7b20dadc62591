package hierarchy

import "errors"

// ErrDataSource wraps failures reading the org chart or employee feeds.
var ErrDataSource = errors.New("hierarchy data source error")
