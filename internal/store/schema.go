package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the bootstrap DDL, applied idempotently at startup.
// Note: teacher_attendance and volunteer_attendance intentionally carry no
// unique (entity, date) constraint; that uniqueness is checked in the
// attendance service only, matching the original system's behavior.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    user_id VARCHAR(100) UNIQUE NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    role VARCHAR(20) NOT NULL CHECK (role IN ('admin', 'teacher'))
);

CREATE TABLE IF NOT EXISTS students (
    id UUID PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    grade INTEGER NOT NULL,
    category VARCHAR(20) NOT NULL,
    place VARCHAR(100),
    parent VARCHAR(100),
    phone VARCHAR(30),
    class_assigned UUID
);

CREATE TABLE IF NOT EXISTS teachers (
    id UUID PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    phone VARCHAR(30),
    user_id UUID NOT NULL,
    class_assigned UUID
);

CREATE TABLE IF NOT EXISTS classes (
    id UUID PRIMARY KEY,
    name VARCHAR(100) UNIQUE NOT NULL,
    category VARCHAR(20) NOT NULL,
    teacher_id UUID
);

CREATE TABLE IF NOT EXISTS class_students (
    class_id UUID NOT NULL,
    student_id UUID NOT NULL,
    PRIMARY KEY (class_id, student_id)
);

CREATE TABLE IF NOT EXISTS volunteers (
    id UUID PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    phone VARCHAR(30)
);

CREATE TABLE IF NOT EXISTS attendance (
    id UUID PRIMARY KEY,
    student_id UUID NOT NULL,
    class_id UUID NOT NULL,
    date DATE NOT NULL,
    status VARCHAR(10) NOT NULL CHECK (status IN ('present', 'absent')),
    submitted_by UUID,
    UNIQUE (student_id, date)
);

CREATE TABLE IF NOT EXISTS teacher_attendance (
    id UUID PRIMARY KEY,
    teacher_id UUID NOT NULL,
    date DATE NOT NULL,
    status VARCHAR(10) NOT NULL CHECK (status IN ('present', 'absent'))
);

CREATE TABLE IF NOT EXISTS volunteer_attendance (
    id UUID PRIMARY KEY,
    volunteer_id UUID NOT NULL,
    date DATE NOT NULL,
    status VARCHAR(10) NOT NULL CHECK (status IN ('present', 'absent'))
);

CREATE TABLE IF NOT EXISTS time_window (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    start_time VARCHAR(5) NOT NULL,
    end_time VARCHAR(5) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attendance_class_date ON attendance (class_id, date);
`

// EnsureSchema applies the bootstrap DDL.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
