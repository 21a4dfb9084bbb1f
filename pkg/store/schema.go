package store

// Table names by indicator.
const (
	TableGDPGrowth    = "raw_gdp_growth"
	TableUnemployment = "raw_unemployment"
)

// tableNames routes indicator names to their staging tables. Exactly these
// two indicators are supported; anything else is a configuration mistake.
var tableNames = map[string]string{
	"gdp_growth":   TableGDPGrowth,
	"unemployment": TableUnemployment,
}

// ddl creates both staging tables. Safe to run on every start.
const ddl = `
CREATE TABLE IF NOT EXISTS raw_gdp_growth (
    id              SERIAL          PRIMARY KEY,
    country_iso3    CHAR(3)         NOT NULL,
    country_name    TEXT,
    year            SMALLINT        NOT NULL,
    value           NUMERIC(10, 4),
    indicator_id    TEXT,
    indicator_name  TEXT,
    fetched_at      TIMESTAMPTZ     NOT NULL,
    UNIQUE (country_iso3, year)
);

CREATE TABLE IF NOT EXISTS raw_unemployment (
    id              SERIAL          PRIMARY KEY,
    country_iso3    CHAR(3)         NOT NULL,
    country_name    TEXT,
    year            SMALLINT        NOT NULL,
    value           NUMERIC(10, 4),
    indicator_id    TEXT,
    indicator_name  TEXT,
    fetched_at      TIMESTAMPTZ     NOT NULL,
    UNIQUE (country_iso3, year)
);
`
