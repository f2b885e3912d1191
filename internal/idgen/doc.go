// Package idgen generates patch session identifiers.
package idgen
