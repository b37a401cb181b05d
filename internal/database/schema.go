package database

// schema is the complete table/index set for the pipeline. Kept as one
// embedded string rather than a migrations directory: the whole schema is
// small enough that versioned migrations would be overhead, not safety.
const schema = `
CREATE TABLE IF NOT EXISTS stocks (
	symbol TEXT PRIMARY KEY,
	name   TEXT NOT NULL,
	sector TEXT NOT NULL,
	rank   INTEGER
);

CREATE TABLE IF NOT EXISTS market_data_points (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol      TEXT NOT NULL REFERENCES stocks(symbol),
	price       TEXT NOT NULL,
	volume      INTEGER NOT NULL,
	observed_at TEXT NOT NULL,
	ingested_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_market_data_points_symbol_observed
	ON market_data_points(symbol, observed_at DESC);

CREATE TABLE IF NOT EXISTS sentiment_observations (
	symbol      TEXT NOT NULL REFERENCES stocks(symbol),
	source      TEXT NOT NULL,
	score       REAL NOT NULL,
	observed_at TEXT NOT NULL,
	ingested_at TEXT NOT NULL,
	PRIMARY KEY (symbol, source, observed_at)
);
CREATE INDEX IF NOT EXISTS idx_sentiment_observations_symbol_observed
	ON sentiment_observations(symbol, observed_at DESC);

CREATE TABLE IF NOT EXISTS user_preferences (
	user_id        TEXT PRIMARY KEY,
	holding_period TEXT NOT NULL,
	risk_tolerance TEXT NOT NULL,
	tier           TEXT NOT NULL,
	last_updated   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_stock_tracking (
	user_id    TEXT NOT NULL REFERENCES user_preferences(user_id),
	symbol     TEXT NOT NULL REFERENCES stocks(symbol),
	created_at TEXT NOT NULL,
	PRIMARY KEY (user_id, symbol)
);

CREATE TABLE IF NOT EXISTS recommendations (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     TEXT NOT NULL REFERENCES user_preferences(user_id),
	symbol      TEXT NOT NULL REFERENCES stocks(symbol),
	signal      TEXT NOT NULL,
	confidence  REAL NOT NULL,
	sentiment   REAL NOT NULL,
	risk        TEXT NOT NULL,
	explanation TEXT NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_recommendations_user_created
	ON recommendations(user_id, created_at DESC);
`
