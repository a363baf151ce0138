// Package id generates the unique identifiers carried by storage items.
//
// Random ids are UUIDv4 strings. Ids derived from a string are UUIDv5 values in
// a fixed namespace, so the same input always yields the same id across runs
// and machines.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// NamespaceDomain is the DNS name the derivation namespace is built from.
const NamespaceDomain = "pupil-labs.com"

// NamespaceLiteral is the value Namespace must always have.
const NamespaceLiteral = "8ea5d78e-e022-5ee4-a198-1bc002516ff0"

// Namespace seeds UniqueIDFromString.
var Namespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte(NamespaceDomain))

// VerifyNamespace reports an error if Namespace drifted from NamespaceLiteral.
func VerifyNamespace() error {
	if Namespace.String() != NamespaceLiteral {
		return fmt.Errorf("id namespace is %s, want %s", Namespace, NamespaceLiteral)
	}
	return nil
}

// NewUniqueID returns a random id such as "04bfd332-...".
func NewUniqueID() string {
	return uuid.NewString()
}

// UniqueIDFromString returns an id shaped like NewUniqueID, but identical for
// identical input.
func UniqueIDFromString(s string) string {
	return uuid.NewSHA1(Namespace, []byte(s)).String()
}
