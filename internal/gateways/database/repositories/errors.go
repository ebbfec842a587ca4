package repositories

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/uptrace/bun/driver/pgdriver"
)

const uniqueViolation = "23505"

// translate maps driver errors onto domain errors. notFound is returned for
// sql.ErrNoRows; unique violations on a slug become ErrSlugTaken and every
// other unique violation ErrDuplicate.
func translate(err error, notFound *domain.Error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) && notFound != nil {
		return notFound
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation {
		if strings.Contains(pgErr.Field('n'), "slug") {
			return domain.ErrSlugTaken
		}
		return domain.ErrDuplicate.WithMessage("%s", pgErr.Field('M'))
	}
	return err
}

func affected(res sql.Result, notFound *domain.Error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
