package contracts

import "errors"

var (
	// ErrMissingCredentials: 데이터 소스 인증 정보 미설정 (스캔 전체 실패)
	ErrMissingCredentials = errors.New("data source credentials not configured")

	// ErrInvalidConditions: 스캔 조건 검증 실패 (스캔 전체 실패)
	ErrInvalidConditions = errors.New("invalid scan conditions")

	// ErrNoData: 종목 데이터 없음 (해당 종목만 건너뜀)
	ErrNoData = errors.New("no data for symbol")

	// ErrNotFound: 저장된 스캔 없음
	ErrNotFound = errors.New("not found")
)
