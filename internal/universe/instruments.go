package universe

import "github.com/wonny/pocscan/internal/contracts"

const marketKOSPI = "KOSPI"

// 주요 대형주 20종목 (스캔 순서 고정)
var defaultInstruments = []contracts.Instrument{
	{Symbol: "005930", Name: "삼성전자", Sector: "전기전자", Market: marketKOSPI},
	{Symbol: "000660", Name: "SK하이닉스", Sector: "전기전자", Market: marketKOSPI},
	{Symbol: "035420", Name: "NAVER", Sector: "IT", Market: marketKOSPI},
	{Symbol: "005380", Name: "현대차", Sector: "자동차", Market: marketKOSPI},
	{Symbol: "051910", Name: "LG화학", Sector: "화학", Market: marketKOSPI},
	{Symbol: "006400", Name: "삼성SDI", Sector: "전기전자", Market: marketKOSPI},
	{Symbol: "035720", Name: "카카오", Sector: "IT", Market: marketKOSPI},
	{Symbol: "028260", Name: "삼성물산", Sector: "유통", Market: marketKOSPI},
	{Symbol: "068270", Name: "셀트리온", Sector: "제약/바이오", Market: marketKOSPI},
	{Symbol: "207940", Name: "삼성바이오로직스", Sector: "제약/바이오", Market: marketKOSPI},
	{Symbol: "005490", Name: "POSCO홀딩스", Sector: "철강", Market: marketKOSPI},
	{Symbol: "012330", Name: "현대모비스", Sector: "자동차", Market: marketKOSPI},
	{Symbol: "066570", Name: "LG전자", Sector: "전기전자", Market: marketKOSPI},
	{Symbol: "003550", Name: "LG", Sector: "기타", Market: marketKOSPI},
	{Symbol: "096770", Name: "SK이노베이션", Sector: "화학", Market: marketKOSPI},
	{Symbol: "017670", Name: "SK텔레콤", Sector: "통신", Market: marketKOSPI},
	{Symbol: "009150", Name: "삼성전기", Sector: "전기전자", Market: marketKOSPI},
	{Symbol: "011200", Name: "HMM", Sector: "운수", Market: marketKOSPI},
	{Symbol: "086790", Name: "하나금융지주", Sector: "금융", Market: marketKOSPI},
	{Symbol: "055550", Name: "신한지주", Sector: "금융", Market: marketKOSPI},
}
