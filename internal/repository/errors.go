// Package repository contains the MySQL and Redis data access code.  The
// sentinel values below let services distinguish failure scenarios without
// looking at driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmailExists is returned when a manager email is already registered.
	ErrEmailExists = errors.New("email already exists")

	// ErrAlreadyAssigned is returned when a manager who already owns a
	// store tries to take another one.
	ErrAlreadyAssigned = errors.New("manager already assigned to a store")

	// ErrStoreTaken is returned when the store already has a different
	// manager.  The unique index on managers.store_id backs this up.
	ErrStoreTaken = errors.New("store already has a manager")

	// ErrInUse is returned when a delete is refused because other rows
	// still reference the target.
	ErrInUse = errors.New("still referenced")

	// ErrBadReference is returned when a foreign key points at nothing.
	ErrBadReference = errors.New("referenced row does not exist")
)

const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

func mysqlCode(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlCode(err) == mysqlDuplicateEntry }

func isMissingRef(err error) bool { return mysqlCode(err) == mysqlNoReferencedRow }

func nullID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func idPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}
