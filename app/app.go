package app

import (
	"database/sql"

	"github.com/dynaform/dynaform/config"
)

type App struct {
	*sql.DB
	config.Config
}
