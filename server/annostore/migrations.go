package annostore

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
)

func Migrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE annotation(
			id INTEGER PRIMARY KEY,
			video_id INT NOT NULL,
			label TEXT NOT NULL,
			fps REAL NOT NULL,
			created_at INT NOT NULL,
			modified_at INT NOT NULL,
			sequence TEXT
		);

		CREATE INDEX idx_annotation_video_id ON annotation (video_id);
	`))

	return migs
}
