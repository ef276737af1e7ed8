package database

// Schema contains the tables owned by the report store.
const Schema = `
CREATE TABLE IF NOT EXISTS reports (
    id VARCHAR(64) PRIMARY KEY,
    category VARCHAR(128) NOT NULL,
    description TEXT,
    latitude DOUBLE,
    longitude DOUBLE,
    risk_score INT NOT NULL DEFAULT 0,
    status ENUM('OPEN', 'IN_PROGRESS', 'PENDING', 'RESOLVED') NOT NULL DEFAULT 'OPEN',
    reported_by VARCHAR(256),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    INDEX idx_status (status),
    INDEX idx_category (category),
    INDEX idx_created_at (created_at)
);

CREATE TABLE IF NOT EXISTS announcements (
    id VARCHAR(64) PRIMARY KEY,
    title VARCHAR(256) NOT NULL,
    message TEXT NOT NULL,
    category VARCHAR(64) NOT NULL DEFAULT 'General',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`
