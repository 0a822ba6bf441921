package watch

var Accept = accept
