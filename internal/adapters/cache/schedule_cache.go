// Package cache implementa el cache LRU de esquemas diarios. Es el único
// estado mutable compartido fuera de los repositorios, y por eso la
// invalidación es agresiva: cualquier write de un usuario borra todas sus
// entradas, sin distinguir fechas.
package cache

import (
	"strings"
	"time"

	"med-adherence/internal/domain/schedule"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultSize = 1024

// ScheduleCache memoiza DaySchedule por clave "userID|YYYY-MM-DD".
// Satisface schedule.Cache y los CacheInvalidator de medications/doselogs.
type ScheduleCache struct {
	lru *lru.Cache[string, schedule.DaySchedule]
}

func NewScheduleCache(size int) (*ScheduleCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, schedule.DaySchedule](size)
	if err != nil {
		return nil, err
	}
	return &ScheduleCache{lru: c}, nil
}

func cacheKey(userID string, date time.Time) string {
	return userID + "|" + date.Format("2006-01-02")
}

func (c *ScheduleCache) Get(userID string, date time.Time) (schedule.DaySchedule, bool) {
	return c.lru.Get(cacheKey(userID, date))
}

func (c *ScheduleCache) Put(userID string, date time.Time, day schedule.DaySchedule) {
	c.lru.Add(cacheKey(userID, date), day)
}

// InvalidateUser borra todas las entradas del usuario. Recorre las claves
// vivas; con el tamaño por defecto es barato y mantiene simple el contrato.
func (c *ScheduleCache) InvalidateUser(userID string) {
	prefix := userID + "|"
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
}
