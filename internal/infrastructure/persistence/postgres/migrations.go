package postgres

// GetMigrations returns all embedded migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_school_schema",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_lookup_indexes",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: SCHOOL SCHEMA
// ══════════════════════════════════════════════════════════════════════════════

// Students are not deleted in cascade. Their tasks and memberships keep the
// student id without a foreign key so a delete never fails on them.
const migration001Up = `
CREATE TABLE IF NOT EXISTS classes (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS subjects (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS students (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    age INTEGER NOT NULL,
    scholarship BOOLEAN NOT NULL DEFAULT FALSE,
    class_id BIGINT NOT NULL REFERENCES classes(id)
);

CREATE TABLE IF NOT EXISTS student_subjects (
    student_id BIGINT NOT NULL,
    subject_id BIGINT NOT NULL REFERENCES subjects(id),
    PRIMARY KEY (student_id, subject_id)
);

CREATE TABLE IF NOT EXISTS tasks (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    subject_id BIGINT NOT NULL REFERENCES subjects(id),
    student_id BIGINT NOT NULL
);
`

const migration001Down = `
DROP TABLE IF EXISTS tasks;
DROP TABLE IF EXISTS student_subjects;
DROP TABLE IF EXISTS students;
DROP TABLE IF EXISTS subjects;
DROP TABLE IF EXISTS classes;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: LOOKUP INDEXES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE INDEX IF NOT EXISTS idx_students_class_id ON students(class_id);
CREATE INDEX IF NOT EXISTS idx_students_scholarship ON students(class_id) WHERE scholarship;
CREATE INDEX IF NOT EXISTS idx_student_subjects_subject_id ON student_subjects(subject_id);
CREATE INDEX IF NOT EXISTS idx_tasks_student_id ON tasks(student_id);
CREATE INDEX IF NOT EXISTS idx_tasks_pending ON tasks(student_id) WHERE NOT completed;
`

const migration002Down = `
DROP INDEX IF EXISTS idx_tasks_pending;
DROP INDEX IF EXISTS idx_tasks_student_id;
DROP INDEX IF EXISTS idx_student_subjects_subject_id;
DROP INDEX IF EXISTS idx_students_scholarship;
DROP INDEX IF EXISTS idx_students_class_id;
`
