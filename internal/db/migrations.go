package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS report_cities (
		id         BIGINT PRIMARY KEY,
		name       TEXT NOT NULL,
		sort_order INT NOT NULL DEFAULT 0,
		active     BOOLEAN NOT NULL DEFAULT TRUE
	);`,
	`CREATE TABLE IF NOT EXISTS report_car_types (
		key        TEXT PRIMARY KEY,
		label      TEXT NOT NULL,
		ids        TEXT NOT NULL DEFAULT '',
		exclude    BOOLEAN NOT NULL DEFAULT FALSE,
		aliases    TEXT NOT NULL DEFAULT '',
		sort_order INT NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS report_pages (
		path          TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		hash_key      TEXT NOT NULL,
		job_list      TEXT NOT NULL,
		digits        INT NOT NULL DEFAULT 0,
		show_car_type BOOLEAN NOT NULL DEFAULT TRUE,
		sort_order    INT NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_report_cities_sort ON report_cities (sort_order, id) WHERE active;`,
	// "other" selects everything outside the named buckets, so its ids are
	// sent as an exclusion.
	`INSERT INTO report_car_types (key, label, ids, exclude, aliases, sort_order) VALUES
		('0', '全部', '', FALSE, 'all', 0),
		('1', '易达+', '37,78', FALSE, '', 1),
		('2', '舒适+', '2,3', FALSE, '', 2),
		('3', '商务+', '5', FALSE, '', 3),
		('4', '出租车', '78', FALSE, '', 4),
		('5', '其他', '37,78,2,3,5', TRUE, 'other', 5)
	ON CONFLICT (key) DO NOTHING;`,
	`INSERT INTO report_pages (path, name, hash_key, job_list, digits, show_car_type, sort_order) VALUES
		('orders', '订单量排行', 'total_of_orders', '1001', 0, TRUE, 0),
		('finished', '完成订单排行', 'total_of_finished_orders', '1002', 0, TRUE, 1),
		('bymeter-rate', '打表来接占比排行', 'rate_of_bymeter_order', '1003', 2, TRUE, 2),
		('drivers', '在线司机排行', 'total_of_online_drivers', '1004', 0, FALSE, 3)
	ON CONFLICT (path) DO NOTHING;`,
	`INSERT INTO report_cities (id, name, sort_order) VALUES
		(1, '北京', 1),
		(2, '上海', 2),
		(3, '广州', 3),
		(4, '深圳', 4),
		(5, '杭州', 5),
		(6, '成都', 6),
		(7, '武汉', 7),
		(8, '南京', 8)
	ON CONFLICT (id) DO NOTHING;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
