// Registers every driver of this module.
package all

import (
	_ "github.com/mitranim/sequel/driver/mysql"
	_ "github.com/mitranim/sequel/driver/postgres"
	_ "github.com/mitranim/sequel/driver/sqlite"
	_ "github.com/mitranim/sequel/driver/sqlserver"
)
