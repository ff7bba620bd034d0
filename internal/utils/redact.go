package utils

import "strings"

// RedactDSN drops credentials and the query (auth tokens) from a
// connection string so it can be logged.
func RedactDSN(dsn string) string {
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		dsn = dsn[:i]
	}
	if at := strings.LastIndexByte(dsn, '@'); at >= 0 {
		if scheme := strings.Index(dsn, "://"); scheme >= 0 && scheme < at {
			return dsn[:scheme+3] + "***@" + dsn[at+1:]
		}
	}
	return dsn
}
