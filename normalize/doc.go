// Package normalize turns raw catalog records into canonical core.Dataset
// values.
//
// Normalization never fails. Missing or blank fields are replaced by the
// sentinels in core (UnknownText, UnknownPublisher, UnknownFormat,
// UnknownName), HTML is stripped and entities decoded, and artifacts left by
// word processors are removed. Every substitution is reported as an error
// wrapping core.ErrInput so callers can count degraded records.
package normalize
