package providerfilter

import "newsdigest/internal/core"

// Seed returns the 23-provider bootstrap table with stable ids, used to
// populate an empty providers table so C3 has something to crawl. Ids are
// fixed so repeated Upsert calls are idempotent.
func Seed() []core.Provider {
	return []core.Provider{
		{ID: 1, Name: "ABC", Homepage: "https://www.abc.net.au", Favicon: "https://www.abc.net.au/favicon.ico", Country: "AU", Timezone: "Australia/Sydney"},
		{ID: 2, Name: "Al Jazeera", Homepage: "https://www.aljazeera.com", Favicon: "https://www.aljazeera.com/favicon.ico", Country: "QA", Timezone: "Asia/Qatar"},
		{ID: 3, Name: "BBC", Homepage: "https://www.bbc.com", Favicon: "https://www.bbc.com/favicon.ico", Country: "GB", Timezone: "Europe/London"},
		{ID: 4, Name: "CNN", Homepage: "https://www.cnn.com", Favicon: "https://www.cnn.com/favicon.ico", Country: "US", Timezone: "America/New_York"},
		{ID: 5, Name: "DW", Homepage: "https://www.dw.com", Favicon: "https://www.dw.com/favicon.ico", Country: "DE", Timezone: "Europe/Berlin"},
		{ID: 6, Name: "Euronews", Homepage: "https://www.euronews.com", Favicon: "https://www.euronews.com/favicon.ico", Country: "FR", Timezone: "Europe/Paris"},
		{ID: 7, Name: "Financial Review", Homepage: "https://www.afr.com", Favicon: "https://www.afr.com/favicon.ico", Country: "AU", Timezone: "Australia/Sydney"},
		{ID: 8, Name: "Fox News", Homepage: "https://www.foxnews.com", Favicon: "https://www.foxnews.com/favicon.ico", Country: "US", Timezone: "America/New_York"},
		{ID: 9, Name: "Hindustan Times", Homepage: "https://www.hindustantimes.com", Favicon: "https://www.hindustantimes.com/favicon.ico", Country: "IN", Timezone: "Asia/Kolkata"},
		{ID: 10, Name: "MSNBC", Homepage: "https://www.msnbc.com", Favicon: "https://www.msnbc.com/favicon.ico", Country: "US", Timezone: "America/New_York"},
		{ID: 11, Name: "NPR", Homepage: "https://www.npr.org", Favicon: "https://www.npr.org/favicon.ico", Country: "US", Timezone: "America/New_York"},
		{ID: 12, Name: "SBS", Homepage: "https://www.sbs.com.au", Favicon: "https://www.sbs.com.au/favicon.ico", Country: "AU", Timezone: "Australia/Sydney"},
		{ID: 13, Name: "Sky News Australia", Homepage: "https://www.skynews.com.au", Favicon: "https://www.skynews.com.au/favicon.ico", Country: "AU", Timezone: "Australia/Sydney"},
		{ID: 14, Name: "The Age", Homepage: "https://www.theage.com.au", Favicon: "https://www.theage.com.au/favicon.ico", Country: "AU", Timezone: "Australia/Melbourne"},
		{ID: 15, Name: "AP", Homepage: "https://apnews.com", Favicon: "https://apnews.com/favicon.ico", Country: "US", Timezone: "America/New_York"},
		{ID: 16, Name: "The Economist", Homepage: "https://www.economist.com", Favicon: "https://www.economist.com/favicon.ico", Country: "GB", Timezone: "Europe/London"},
		{ID: 17, Name: "Globe and Mail", Homepage: "https://www.theglobeandmail.com", Favicon: "https://www.theglobeandmail.com/favicon.ico", Country: "CA", Timezone: "America/Toronto"},
		{ID: 18, Name: "The Guardian", Homepage: "https://www.theguardian.com", Favicon: "https://www.theguardian.com/favicon.ico", Country: "GB", Timezone: "Europe/London"},
		{ID: 19, Name: "NYT", Homepage: "https://www.nytimes.com", Favicon: "https://www.nytimes.com/favicon.ico", Country: "US", Timezone: "America/New_York"},
		{ID: 20, Name: "SMH", Homepage: "https://www.smh.com.au", Favicon: "https://www.smh.com.au/favicon.ico", Country: "AU", Timezone: "Australia/Sydney"},
		{ID: 21, Name: "The Telegraph", Homepage: "https://www.telegraph.co.uk", Favicon: "https://www.telegraph.co.uk/favicon.ico", Country: "GB", Timezone: "Europe/London"},
		{ID: 22, Name: "Washington Post", Homepage: "https://www.washingtonpost.com", Favicon: "https://www.washingtonpost.com/favicon.ico", Country: "US", Timezone: "America/New_York"},
		{ID: 23, Name: "9 News", Homepage: "https://www.9news.com.au", Favicon: "https://www.9news.com.au/favicon.ico", Country: "AU", Timezone: "Australia/Sydney"},
	}
}
