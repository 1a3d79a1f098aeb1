// Package conv provides checked integer conversions for values decoded from
// cache files and transfer envelopes.
package conv
